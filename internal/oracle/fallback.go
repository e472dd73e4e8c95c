package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
)

// sleepFunc waits out a rate-limit backoff unless ctx ends first. Tests swap
// it out.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FallbackOptions bounds one CallWithFallback run
type FallbackOptions struct {
	// Timeout applies to each credential attempt separately
	Timeout time.Duration

	// Backoff is the pause after a rate-limit response before the next credential
	Backoff time.Duration
}

// DefaultFallbackOptions mirrors the llm config defaults
func DefaultFallbackOptions() FallbackOptions {
	return FallbackOptions{
		Timeout: 60 * time.Second,
		Backoff: 2 * time.Second,
	}
}

// CallWithFallback tries each credential in the caller's order until one
// answers. A rate-limited credential is followed by a short backoff; any other
// failure moves straight to the next credential. When the pool is exhausted the
// returned error wraps ErrOracleUnavailable. No state survives between calls.
func CallWithFallback(ctx context.Context, req Request, creds []model.Credential, factory Factory, opts FallbackOptions) (*Response, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("%w: no credentials configured", ErrOracleUnavailable)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: no provider factory", ErrOracleUnavailable)
	}

	var errs []error
	for i, cred := range creds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		provider, err := factory(cred)
		if err != nil {
			errs = append(errs, fmt.Errorf("credential %d: %w", i+1, err))
			continue
		}

		resp, err := completeWithTimeout(ctx, provider, req, opts.Timeout)
		if err == nil {
			if i > 0 {
				log.Debug().Int("credential", i+1).Str("provider", provider.Name()).Msg("Oracle answered after fallback")
			}
			return resp, nil
		}

		errs = append(errs, fmt.Errorf("credential %d (%s): %w", i+1, provider.Name(), err))

		if errors.Is(err, ErrRateLimited) {
			log.Warn().Int("credential", i+1).Str("provider", provider.Name()).
				Dur("backoff", opts.Backoff).Msg("Oracle rate limited, rotating credential")
			if i < len(creds)-1 && opts.Backoff > 0 {
				if err := sleepFunc(ctx, opts.Backoff); err != nil {
					errs = append(errs, err)
					break
				}
			}
			continue
		}

		log.Warn().Err(err).Int("credential", i+1).Str("provider", provider.Name()).Msg("Oracle call failed")
	}

	return nil, fmt.Errorf("%w: %d credential(s) tried: %w", ErrOracleUnavailable, len(errs), errors.Join(errs...))
}

func completeWithTimeout(ctx context.Context, p Provider, req Request, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	return resp, nil
}
