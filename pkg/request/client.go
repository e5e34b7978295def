package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"scentline/pkg/store"
	"scentline/pkg/tracker"
	"scentline/pkg/version"
)

var (
	defaultUserAgent = fmt.Sprintf("Scentline SAR Planner (Scentline/%s)", version.Version)
)

// Options tunes the client. Zero values fall back to built-in defaults.
type Options struct {
	Timeout     time.Duration
	Retries     int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Client handles HTTP requests with queuing, caching, and tracking.
type Client struct {
	httpClient *http.Client
	cache      store.CacheStore
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	retries    int

	// Queues per provider (domain)
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// job represents a queued request.
type job struct {
	req      *http.Request
	headers  map[string]string
	cacheKey string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client.
func New(c store.CacheStore, t *tracker.Tracker, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      c,
		tracker:    t,
		backoff:    NewProviderBackoff(opts.BackoffBase, opts.BackoffMax),
		retries:    opts.Retries,
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request with queuing and caching if key is provided.
func (c *Client) Get(ctx context.Context, u, cacheKey string) ([]byte, error) {
	return c.GetWithHeaders(ctx, u, nil, cacheKey)
}

// GetWithHeaders performs a GET request with custom headers and optional caching.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	// 1. Check Cache (Only if key is provided)
	if cacheKey != "" {
		if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
			c.tracker.TrackCacheHit(provider)
			slog.Debug("Cache Hit", "provider", provider, "key", cacheKey)
			return val, nil
		}
		c.tracker.TrackCacheMiss(provider)
		slog.Debug("Cache Miss", "provider", provider, "key", cacheKey)
	}

	// 2. Enqueue Request
	req, err := http.NewRequestWithContext(ctx, "GET", u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	j := job{req: req, headers: headers, cacheKey: cacheKey, respChan: respChan}

	c.dispatch(provider, j)

	// 3. Wait for Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

func normalizeProvider(host string) string {
	// Group all open-meteo subdomains (api, archive-api, etc.) into one provider
	if strings.HasSuffix(host, ".open-meteo.com") || host == "open-meteo.com" {
		return "open-meteo"
	}
	if strings.HasSuffix(host, ".opentopodata.org") || host == "opentopodata.org" {
		return "opentopodata"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[provider]
	if !ok {
		// Create new queue and start worker
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}

	// We block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		// Caller gave up before we could even enqueue
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		// Check context before processing
		if j.req.Context().Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "provider", provider, "error", j.req.Context().Err())
			j.respChan <- jobResult{err: j.req.Context().Err()}
			continue
		}

		// Apply User-Agent (Default if not provided)
		uaMatch := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaMatch = true
			}
		}
		if !uaMatch {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		body, err := c.execute(provider, j.req)

		if err == nil {
			c.tracker.TrackAPISuccess(provider)
			// Cache result (Only if key is provided)
			if j.cacheKey != "" {
				if err := c.cache.SetCache(context.Background(), j.cacheKey, body); err != nil {
					slog.Error("Failed to cache response", "url", j.req.URL, "error", err)
				}
			}
		} else {
			c.tracker.TrackAPIFailure(provider)
		}

		j.respChan <- jobResult{body: body, err: err}

		// Hardcoded safety gap to prevent hitting rate limits
		time.Sleep(100 * time.Millisecond)
	}
}

// execute attempts the request, honoring and updating the provider backoff.
func (c *Client) execute(provider string, req *http.Request) ([]byte, error) {
	for attempt := 0; attempt < c.retries; attempt++ {
		// Honor the provider hold-off; bail out if the caller gave up
		if err := c.backoff.Wait(req.Context(), provider); err != nil {
			return nil, err
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)

		if err != nil {
			// Check if the error is a context cancellation from OUR side
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}

			// Otherwise, it's a network error or server timeout
			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			c.backoff.RecordFailure(provider)
			continue
		}

		// Handle Status Codes
		if resp.StatusCode == 429 || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			slog.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			c.backoff.RecordFailure(provider)
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
		}

		// Success
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		c.backoff.RecordSuccess(provider)
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded")
}
