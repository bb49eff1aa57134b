// Package registry provides shared HTTP functionality for package-index
// clients: response caching, retry with backoff, and status classification.
//
// Status codes are mapped onto the failure taxonomy once, here: 404 becomes
// [ErrNotFound] (terminal), 429 and 5xx become retryable network errors,
// anything else unexpected is a terminal network error.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wheelforge/wheelforge/pkg/cache"
	"github.com/wheelforge/wheelforge/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the index.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx).
	ErrNetwork = errors.New("network error")
)

// Client provides cached, retrying HTTP GETs against a package index.
// All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	prefix  string
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client backed by the given cache. All cache keys are
// namespaced with prefix (e.g. "pypi:"); pass nil headers if no defaults are
// needed. A nil backend disables caching.
func NewClient(backend cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   backend,
		prefix:  prefix,
		ttl:     ttl,
		headers: headers,
	}
}

// Cached returns the cached value for key, or runs fetch (with retry) and
// caches its result. If refresh is true the cache is bypassed. The fetch
// function must populate v; on success v is stored as JSON.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	key = c.prefix + key
	if !refresh {
		if data, hit, _ := c.cache.Get(ctx, key); hit {
			if err := json.Unmarshal(data, v); err == nil {
				return nil
			}
			// Unreadable entry: fall through to a fresh fetch.
			_ = c.cache.Delete(ctx, key)
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return nil
}

// GetJSON performs an HTTP GET and JSON-decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.GetJSONWithHeaders(ctx, url, nil, v)
}

// GetJSONWithHeaders performs an HTTP GET with extra headers merged over the
// client defaults, decoding the JSON response into v. A body cut short by the
// connection is a retryable network error; a complete body that fails to
// decode is terminal.
func (c *Client) GetJSONWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return httputil.Retryable(fmt.Errorf("%w: reading response: %v", ErrNetwork, err))
	}
	return json.Unmarshal(data, v)
}

// GetText performs an HTTP GET and returns the response body as a string.
// Used for non-JSON endpoints like simple-index HTML pages.
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", httputil.Retryable(fmt.Errorf("%w: reading response: %v", ErrNetwork, err))
	}
	return string(data), nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return httputil.Retryable(fmt.Errorf("%w: rate limited (status %d)", ErrNetwork, code))
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
