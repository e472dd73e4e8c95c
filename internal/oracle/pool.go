package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ppiankov/estatuto/internal/cache"
	"github.com/ppiankov/estatuto/internal/model"
)

// Pool is the Caller shared by every worker of a batch. It owns the credential
// order, a process-wide rate limit and the answer cache; each Call runs one
// CallWithFallback pass over the credentials.
type Pool struct {
	creds    []model.Credential
	factory  Factory
	opts     FallbackOptions
	limiter  *rate.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	model    string
}

// PoolOption customizes a Pool
type PoolOption func(*Pool)

// WithCache stores successful answers under cache.PromptKey
func WithCache(c cache.Cache, ttl time.Duration) PoolOption {
	return func(p *Pool) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithRateLimit throttles calls across all credentials
func WithRateLimit(rps float64, burst int) PoolOption {
	return func(p *Pool) {
		if rps <= 0 {
			p.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewPool builds a pool over an explicit credential list
func NewPool(creds []model.Credential, factory Factory, opts FallbackOptions, options ...PoolOption) *Pool {
	p := &Pool{
		creds:   append([]model.Credential(nil), creds...),
		factory: factory,
		opts:    opts,
		cache:   cache.Noop{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// NewPoolFromConfig wires the pool from application config. It returns nil
// when no provider is configured, which disables every oracle tier.
func NewPoolFromConfig(cfg *model.Config, c cache.Cache) *Pool {
	if cfg == nil || cfg.LLM.Provider == "" {
		return nil
	}

	creds := ResolveCredentials(cfg.LLM)
	if len(creds) == 0 {
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("Oracle provider configured but no credentials found, oracle tiers disabled")
		return nil
	}

	base := ConfigFromModel(cfg.LLM, cfg.HTTP)
	opts := FallbackOptions{
		Timeout: base.timeout(DefaultFallbackOptions().Timeout),
		Backoff: cfg.LLM.RateLimitBackoff,
	}

	p := NewPool(creds, DefaultFactory(base), opts,
		WithRateLimit(cfg.RateLimiting.OracleRPS, cfg.RateLimiting.OracleBurst),
		WithCache(c, cfg.Cache.DiskTTL),
	)
	p.model = cfg.LLM.Model

	log.Debug().Str("provider", cfg.LLM.Provider).Int("credentials", len(creds)).Msg("Oracle pool ready")
	return p
}

// Size returns the number of credentials in the pool
func (p *Pool) Size() int {
	return len(p.creds)
}

// Call implements Caller
func (p *Pool) Call(ctx context.Context, req Request) (string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.model
	}
	key := cache.PromptKey(req.Task, modelName, req.System, req.Prompt)

	if cached, ok := p.cache.Get(key); ok {
		log.Debug().Str("task", req.Task).Msg("Oracle cache hit")
		return string(cached), nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrOracleUnavailable, err)
		}
	}

	start := time.Now()
	resp, err := CallWithFallback(ctx, req, p.creds, p.factory, p.opts)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("task", req.Task).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Dur("elapsed", time.Since(start)).
		Msg("Oracle call complete")

	if err := p.cache.Set(key, []byte(resp.Text), p.cacheTTL); err != nil {
		log.Debug().Err(err).Msg("Oracle cache write failed")
	}
	return resp.Text, nil
}
