package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/cache"
	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/oracle"
	"github.com/ppiankov/estatuto/internal/pipeline"
	"github.com/ppiankov/estatuto/internal/store"
	"github.com/ppiankov/estatuto/internal/worker"
)

// buildPipeline wires the collaborators named by cfg. The returned close
// function releases the store.
func buildPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, func(), error) {
	c := cache.FromConfig(cfg.Cache)

	fetcher := pipeline.NewFetcherFromConfig(cfg.HTTP, c, cfg.Cache.DiskTTL).
		WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))

	deps := pipeline.Deps{Fetcher: fetcher}

	// a nil *Pool must not become a non-nil Caller
	if pool := oracle.NewPoolFromConfig(cfg, c); pool != nil {
		deps.Oracle = pool
		log.Debug().Int("credentials", pool.Size()).Msg("Oracle enabled")
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	deps.Store = st

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}

	closeFn := func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing store failed")
		}
	}
	return p, closeFn, nil
}
