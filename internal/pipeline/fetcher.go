package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/ppiankov/estatuto/internal/cache"
	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/util"
)

const maxFetchAttempts = 3

// fetchSleepFunc is the sleep function used between retries. Tests override it.
var fetchSleepFunc = time.Sleep

// HostLimiter paces requests per host. worker.Limiter satisfies it.
type HostLimiter interface {
	WaitWithDelay(ctx context.Context, rawURL string, additionalDelay time.Duration) error
}

// Fetcher is the scraping client: it fetches portal pages, decodes them to
// UTF-8 and optionally consults robots.txt, a host limiter and a page cache
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    HostLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := &http.Transport{
		Proxy:               util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if insecureTLS {
		// gov.br mirrors occasionally serve broken chains
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		cache:     cache.Noop{},
	}
}

// NewFetcherFromConfig builds a Fetcher from the http section, with robots
// checking when enabled and the given cache (nil disables caching)
func NewFetcherFromConfig(cfg model.HTTPConfig, c cache.Cache, cacheTTL time.Duration) *Fetcher {
	f := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.InsecureTLS, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.RespectRobots {
		f.WithRobots(util.NewRobotsChecker(f.httpClient, cfg.UserAgent, 0))
	}
	if c != nil {
		f.WithCache(c, cacheTTL)
	}
	return f
}

// WithRobots enables robots.txt checks
func (f *Fetcher) WithRobots(r *util.RobotsChecker) *Fetcher {
	f.robots = r
	return f
}

// WithLimiter paces requests per host
func (f *Fetcher) WithLimiter(l HostLimiter) *Fetcher {
	f.limiter = l
	return f
}

// WithCache caches successful page fetches
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// HTTPClient exposes the underlying client so collaborators share its transport
func (f *Fetcher) HTTPClient() *http.Client {
	return f.httpClient
}

// FetchResult contains the fetched HTML (decoded to UTF-8) and metadata
type FetchResult struct {
	HTML     string          `json:"html"`
	Meta     model.FetchMeta `json:"meta"`
	FinalURL string          `json:"final_url"`
}

// StatusError is a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// BodyTooLargeError is a page larger than the configured body limit
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("body of %s exceeds %d bytes", e.URL, e.Limit)
}

// Get is the full scraping path: robots check, cache lookup (unless
// bypassCache), host pacing, fetch with retry, cache store
func (f *Fetcher) Get(ctx context.Context, rawURL string, bypassCache bool) (*FetchResult, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", util.ErrDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	key := cache.PageKey(rawURL)
	if !bypassCache {
		if data, ok := f.cache.Get(key); ok {
			var cached FetchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.Meta.FromCache = true
				log.Debug().Str("url", rawURL).Msg("page cache hit")
				return &cached, nil
			}
			if err := f.cache.Delete(key); err != nil {
				log.Debug().Err(err).Str("url", rawURL).Msg("dropping unreadable cache entry failed")
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := f.cache.Set(key, data, f.cacheTTL); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("page cache write failed")
		}
	}
	return result, nil
}

// FetchWithRetry wraps Fetch with retry logic for transient errors (5xx,
// 429, connection failures). Exponential backoff: 1s, 2s.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			log.Debug().Str("url", rawURL).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying fetch")
			fetchSleepFunc(backoff)
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxFetchAttempts, lastErr)
}

// Fetch retrieves one page and decodes it to UTF-8. The encoding comes from
// the Content-Type header, a BOM or a <meta charset>, defaulting to
// windows-1252 the way browsers do for legacy portal pages.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &BodyTooLargeError{URL: rawURL, Limit: f.maxBytes}
	}

	contentType := resp.Header.Get("Content-Type")
	enc, encName, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", encName, err)
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		HTML: string(decoded),
		Meta: model.FetchMeta{
			URL:          rawURL,
			FinalURL:     finalURL,
			StatusCode:   resp.StatusCode,
			ContentType:  contentType,
			Charset:      encName,
			LastModified: resp.Header.Get("Last-Modified"),
			ETag:         resp.Header.Get("ETag"),
			FetchedAt:    time.Now().UTC(),
		},
		FinalURL: finalURL,
	}, nil
}

// isRetryableFetchError reports whether a fetch error is transient
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.Code)
	}

	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		code, _, _ := strings.Cut(rest, " ")
		n, convErr := strconv.Atoi(code)
		return convErr == nil && retryableStatus(n)
	}

	// connection-level failures from httpClient.Do
	return strings.HasPrefix(msg, "fetch: ")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
