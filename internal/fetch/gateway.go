// Package fetch implements the resilient HTTP gateway: identity-backed
// requests, block/empty classification, jittered backoff and a hardened
// fallback transport.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/identity"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/metrics"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// dataRequestMarker is set on requests to the versioned JSON endpoint.
const dataRequestMarker = "x-nextjs-data"

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 4 << 20

// Config controls gateway behavior.
type Config struct {
	Timeout time.Duration

	// Politeness delay ranges per stage. Detail pages use a longer range,
	// modeling slower reading behavior.
	ListingDelayMin time.Duration
	ListingDelayMax time.Duration
	DetailDelayMin  time.Duration
	DetailDelayMax  time.Duration

	// MinBodyBytes is the smallest body plausible for a real page; anything
	// under it on a non-empty response is treated as a soft block.
	MinBodyBytes int
	// EmptyBodyBytes is the threshold under which a 2xx body counts as empty.
	EmptyBodyBytes int

	BackoffBase time.Duration
	BackoffMax  time.Duration

	// GlobalRPS floors the overall request rate across all workers.
	GlobalRPS float64

	ProxyURL string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ListingDelayMin <= 0 {
		c.ListingDelayMin = 1 * time.Second
	}
	if c.ListingDelayMax <= c.ListingDelayMin {
		c.ListingDelayMax = c.ListingDelayMin + 2*time.Second
	}
	if c.DetailDelayMin <= 0 {
		c.DetailDelayMin = 2 * time.Second
	}
	if c.DetailDelayMax <= c.DetailDelayMin {
		c.DetailDelayMax = c.DetailDelayMin + 4*time.Second
	}
	if c.MinBodyBytes <= 0 {
		c.MinBodyBytes = 2048
	}
	if c.EmptyBodyBytes <= 0 {
		c.EmptyBodyBytes = 64
	}
	return c
}

// Gateway performs identity-backed fetches with a primary colly transport
// and a single hardened-transport retry on blocked or empty classifications.
type Gateway struct {
	pool     *identity.Pool
	cfg      Config
	backoff  *backoffPolicy
	limiter  *rate.Limiter
	primary  http.RoundTripper
	fallback http.RoundTripper
	logger   *zap.Logger
}

// NewGateway builds a Gateway.
func NewGateway(pool *identity.Pool, cfg Config, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	primary, err := newPrimaryTransport(cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("primary transport: %w", err)
	}
	fallback, err := newFallbackTransport(cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("fallback transport: %w", err)
	}

	limit := rate.Inf
	if cfg.GlobalRPS > 0 {
		limit = rate.Limit(cfg.GlobalRPS)
	}

	return &Gateway{
		pool:     pool,
		cfg:      cfg,
		backoff:  newBackoffPolicy(cfg.BackoffBase, cfg.BackoffMax),
		limiter:  rate.NewLimiter(limit, 1),
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Fetch retrieves url for the stage. attempt is the task's retry count; the
// wait before the fallback escalates with it. The returned FetchResult always
// carries the final classification; the error is non-nil only when both the
// primary and fallback attempts failed to produce an OK payload.
func (g *Gateway) Fetch(ctx context.Context, url string, stage scrape.Stage, attempt int) (scrape.FetchResult, error) {
	pause(ctx, g.politenessDelay(stage))
	if err := g.limiter.Wait(ctx); err != nil {
		return scrape.FetchResult{Status: scrape.FetchNetworkError}, fmt.Errorf("rate limit wait: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return scrape.FetchResult{Status: scrape.FetchNetworkError}, fmt.Errorf("fetch canceled: %w", err)
	}

	result := g.attemptPrimary(ctx, url)
	metrics.ObservePage(string(stage), string(result.Status))
	if result.OK() {
		return result, nil
	}
	if result.Status == scrape.FetchBlocked {
		metrics.ObserveBlocked("primary")
	}
	g.logger.Warn("primary fetch degraded",
		zap.String("url", url),
		zap.String("stage", string(stage)),
		zap.String("status", string(result.Status)),
		zap.Int("status_code", result.StatusCode),
	)

	wait := g.backoff.Backoff(attempt)
	metrics.ObserveBackoff(wait)
	pause(ctx, wait)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("fetch canceled: %w", err)
	}

	retry := g.attemptFallback(ctx, url)
	metrics.ObservePage(string(stage), string(retry.Status))
	if retry.OK() {
		return retry, nil
	}

	switch retry.Status {
	case scrape.FetchBlocked:
		metrics.ObserveBlocked("fallback")
		return retry, fmt.Errorf("fetch %s: %w", url, scrape.ErrBlocked)
	case scrape.FetchEmpty:
		return retry, fmt.Errorf("fetch %s: %w", url, scrape.ErrEmpty)
	default:
		return retry, fmt.Errorf("fetch %s: %w", url, scrape.ErrNetwork)
	}
}

func (g *Gateway) politenessDelay(stage scrape.Stage) time.Duration {
	if stage == scrape.StageDetail {
		return randomBetween(g.cfg.DetailDelayMin, g.cfg.DetailDelayMax)
	}
	return randomBetween(g.cfg.ListingDelayMin, g.cfg.ListingDelayMax)
}

// attemptPrimary issues the request through a fresh collector over the
// shared pooled transport, wearing a checked-out identity. A collector per
// request keeps cookie jars from bleeding across concurrent identities.
func (g *Gateway) attemptPrimary(ctx context.Context, url string) scrape.FetchResult {
	id, err := g.pool.Acquire()
	if err != nil {
		g.logger.Error("identity acquire failed", zap.Error(err))
		return scrape.FetchResult{Status: scrape.FetchNetworkError}
	}

	start := time.Now()
	var (
		result   scrape.FetchResult
		fetchErr error
	)

	collector := colly.NewCollector(colly.Async(false))
	collector.UserAgent = id.Profile.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	collector.WithTransport(g.primary)
	collector.SetRequestTimeout(g.cfg.Timeout)
	collector.SetCookieJar(id.Jar)

	collector.OnRequest(func(r *colly.Request) {
		applyHeaders(r.Headers, id, url)
	})
	collector.OnResponse(func(r *colly.Response) {
		result = scrape.FetchResult{
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			FinalURL:   r.Request.URL.String(),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			result = scrape.FetchResult{
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
				FinalURL:   r.Request.URL.String(),
				Duration:   time.Since(start),
			}
			return
		}
		fetchErr = err
	})

	if err := g.runCollector(ctx, collector, url); err != nil {
		fetchErr = err
	}

	switch {
	case fetchErr != nil && result.StatusCode == 0:
		result.Status = scrape.FetchNetworkError
	default:
		result.Status = g.classify(result.StatusCode, result.Body)
	}
	g.pool.CheckIn(id, result.Status)
	return result
}

func (g *Gateway) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("visit canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		return nil
	}
}

// attemptFallback reissues the request once through the hardened transport
// with a freshly acquired identity.
func (g *Gateway) attemptFallback(ctx context.Context, url string) scrape.FetchResult {
	id, err := g.pool.Acquire()
	if err != nil {
		g.logger.Error("identity acquire failed", zap.Error(err))
		return scrape.FetchResult{Status: scrape.FetchNetworkError}
	}

	client := &http.Client{
		Transport: g.fallback,
		Jar:       id.Jar,
		Timeout:   g.cfg.Timeout,
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		g.pool.CheckIn(id, scrape.FetchNetworkError)
		return scrape.FetchResult{Status: scrape.FetchNetworkError}
	}
	applyHeaders(req.Header, id, url)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := client.Do(req)
	if err != nil {
		g.pool.CheckIn(id, scrape.FetchNetworkError)
		return scrape.FetchResult{Status: scrape.FetchNetworkError, UsedFallback: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		g.pool.CheckIn(id, scrape.FetchNetworkError)
		return scrape.FetchResult{Status: scrape.FetchNetworkError, UsedFallback: true}
	}

	result := scrape.FetchResult{
		StatusCode:   resp.StatusCode,
		Body:         body,
		FinalURL:     resp.Request.URL.String(),
		Duration:     time.Since(start),
		UsedFallback: true,
	}
	result.Status = g.classify(result.StatusCode, result.Body)
	g.pool.CheckIn(id, result.Status)
	return result
}

// classify maps a response onto the fetch taxonomy. Hard anti-bot statuses
// and implausibly small pages count as blocked; near-empty 2xx bodies count
// as empty.
func (g *Gateway) classify(statusCode int, body []byte) scrape.FetchStatus {
	switch statusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return scrape.FetchBlocked
	}
	if statusCode >= 200 && statusCode < 300 && len(body) <= g.cfg.EmptyBodyBytes {
		return scrape.FetchEmpty
	}
	if len(body) < g.cfg.MinBodyBytes {
		return scrape.FetchBlocked
	}
	return scrape.FetchOK
}

// applyHeaders installs the identity's profile headers, plus the data-request
// marker when the URL targets the versioned JSON endpoint.
func applyHeaders(dst headerSetter, id *identity.Identity, url string) {
	for key, values := range id.Headers() {
		for _, v := range values {
			dst.Set(key, v)
		}
	}
	if IsDataRequest(url) {
		dst.Set(dataRequestMarker, "1")
		dst.Set("Accept", "application/json")
	}
}

// headerSetter is satisfied by both http.Header and colly's request headers.
type headerSetter interface {
	Set(key, value string)
}

// IsDataRequest reports whether url targets the internal JSON data endpoint.
func IsDataRequest(url string) bool {
	return strings.Contains(url, "/_next/data/")
}
