// Package ine implements the HTTP client for the Statistics Portugal (INE)
// API. All methods are context-aware, respect the shared rate limiter, and
// retry on transient errors (connection failures, 429, 5xx). Responses are
// cached on disk with per-class TTLs; a cache hit short-circuits the network
// call entirely.
package ine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ptstats/ptine/internal/cache"
)

const (
	defaultBaseURL = "https://www.ine.pt"
	maxRetries     = 3

	catalogueEndpoint = "/ine/xml_indic.jsp"
	metadataEndpoint  = "/ine/json_indicador/pindicaMeta.jsp"
	dataEndpoint      = "/ine/json_indicador/pindica.jsp"
)

// ProgressFunc receives download progress during long fetches.
// total is -1 when the response carries no Content-Length (indeterminate).
type ProgressFunc func(bytes, total int64)

// Client is the INE API HTTP client. It is safe for concurrent use: each
// request builds its own query and parses its own response; the only shared
// resources are the connection pool, the rate limiter and the disk cache.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	noCache    bool
	refresh    bool
	progress   ProgressFunc
	debug      bool
}

// Options configures a Client beyond language and timeout.
type Options struct {
	BaseURL    string
	RatePerSec float64
	Cache      *cache.Cache // nil disables caching entirely
	NoCache    bool         // bypass cache reads, still write
	Refresh    bool         // force re-fetch, overwrite cached entries
	Progress   ProgressFunc
	Debug      bool
}

// NewClient creates a Client for the given language ("EN" or "PT") and
// per-request timeout.
func NewClient(language string, timeout time.Duration, opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ratePerSec := opts.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 5.0
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.ToUpper(language),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), burst),
		cache:    opts.Cache,
		noCache:  opts.NoCache,
		refresh:  opts.Refresh,
		progress: opts.Progress,
		debug:    opts.Debug,
	}
}

// Language returns the configured response language.
func (c *Client) Language() string {
	return c.language
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs a GET request to the INE API, consulting the disk cache first.
// It returns the raw body and whether it came from cache. Retries connection
// errors, 429 and 5xx with capped exponential backoff; 4xx responses fail
// immediately as a *TransportError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, class cache.Class) ([]byte, bool, error) {
	params.Set("lang", c.language)

	key := cache.Key(endpoint, params)
	if c.cache != nil && !c.noCache && !c.refresh {
		if body, ok := c.cache.Get(class, key); ok {
			if c.debug {
				slog.Debug("ine cache hit", "endpoint", endpoint, "bytes", len(body))
			}
			return body, true, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	if c.debug {
		slog.Debug("ine request", "url", reqURL)
	}

	var lastErr error
	var lastStatus int
	var lastBody string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))*500) * time.Millisecond
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, false, &TransportError{Err: err}
		}
		req.Header.Set("Accept", "application/json, text/xml")
		req.Header.Set("User-Agent", "ptine/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			lastStatus, lastBody = 0, ""
			continue
		}

		body, err := c.readBody(resp)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			lastStatus, lastBody = 0, ""
			continue
		}

		if c.debug {
			slog.Debug("ine response", "status", resp.StatusCode, "bytes", len(body))
		}

		// Retry on server errors and rate limiting.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = nil
			lastStatus = resp.StatusCode
			lastBody = strings.TrimSpace(string(body))
			continue
		}

		// Client errors are final.
		if resp.StatusCode != http.StatusOK {
			return nil, false, &TransportError{
				Status: resp.StatusCode,
				Body:   strings.TrimSpace(string(body)),
			}
		}

		if c.cache != nil {
			if err := c.cache.Put(class, key, body); err != nil {
				slog.Debug("cache write failed", "key", key, "err", err)
			}
		}
		return body, false, nil
	}
	return nil, false, &TransportError{Status: lastStatus, Body: lastBody, Err: lastErr}
}

// readBody drains a response body, reporting progress as bytes arrive.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	if c.progress == nil {
		return io.ReadAll(resp.Body)
	}

	total := resp.ContentLength // -1 when unknown
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			c.progress(int64(buf.Len()), total)
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
