package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mzhdanov/finsent/internal/cache"
	"github.com/mzhdanov/finsent/internal/model"
	"github.com/mzhdanov/finsent/internal/util"
	"github.com/mzhdanov/finsent/internal/worker"
)

// Fetcher downloads corpus files over HTTP. Downloads honor robots.txt,
// are rate limited per host, and land in the cache so repeated prepare
// runs do not re-download. A failed download is terminal for the run:
// there is no retry, the caller decides whether to run again.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a fetcher. store may be nil to disable caching.
func NewFetcher(cfg model.HTTPConfig, store cache.Cache, cacheTTL time.Duration) (*Fetcher, error) {
	transport, err := util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.SocksProxy)
	if err != nil {
		return nil, fmt.Errorf("configure transport: %w", err)
	}

	rate := cfg.RatePerHost
	if rate <= 0 {
		rate = 1.0
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout.Std(),
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    util.NewRobotsChecker(util.NormalizeUserAgent(cfg.UserAgent), 10*time.Second),
		limiter:   worker.NewLimiter(rate, 2),
		store:     store,
		cacheTTL:  cacheTTL,
	}, nil
}

// FetchResult is one downloaded corpus file.
type FetchResult struct {
	Data      []byte
	FromCache bool
	FinalURL  string
}

// Fetch downloads rawURL, serving from the cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.CacheKey(rawURL)
	if f.store != nil {
		if data, found := f.store.Get(key); found {
			return &FetchResult{Data: data, FromCache: true, FinalURL: rawURL}, nil
		}
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,application/octet-stream;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// A truncated corpus would silently skew the label distribution, so an
	// oversized body is an error rather than a partial read.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", f.maxBytes)
	}

	if f.store != nil {
		if err := f.store.Set(key, body, f.cacheTTL); err != nil {
			return nil, fmt.Errorf("cache dataset: %w", err)
		}
	}

	return &FetchResult{
		Data:     body,
		FinalURL: resp.Request.URL.String(),
	}, nil
}
