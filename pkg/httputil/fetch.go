package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/crosssection/pkg/buildinfo"
	"github.com/matzehuels/crosssection/pkg/cache"
	"github.com/matzehuels/crosssection/pkg/errors"
)

const (
	// DefaultTTL is how long a fetched document is served from the cache.
	DefaultTTL = time.Hour

	// MaxBodyBytes caps the size of a fetched document.
	MaxBodyBytes = 16 << 20

	defaultTimeout = 30 * time.Second
)

// Client downloads documents with retry and caching.
type Client struct {
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration
}

// NewClient creates a client. A nil cache disables caching and a ttl of
// zero selects DefaultTTL.
func NewClient(c cache.Cache, ttl time.Duration) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		http:  &http.Client{Timeout: defaultTimeout},
		cache: c,
		ttl:   ttl,
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Get returns the body of rawURL, from the cache when fresh.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if !IsURL(rawURL) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "not an http(s) URL: %q", rawURL)
	}
	key := "fetch:" + cache.Hash([]byte(rawURL))
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.fetch(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	// A failed cache write only costs a refetch.
	_ = c.cache.Set(ctx, key, body, c.ttl)
	return body, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "build request")
	}
	req.Header.Set("User-Agent", "crosssection/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json, application/yaml, application/toml, text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeFileNotFound, "document not found: %s", rawURL)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("GET %s: %s", rawURL, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeInvalidInput, "GET %s: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", cache.ErrNetwork, err))
	}
	if len(data) > MaxBodyBytes {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document larger than %d bytes", MaxBodyBytes)
	}
	return data, nil
}

// Name returns the last path element of rawURL, e.g. "sales.yaml" for
// "https://example.com/data/sales.yaml?v=2". It is "document" for URLs
// without a path.
func Name(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "document"
	}
	p := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return "document"
	}
	return p
}
