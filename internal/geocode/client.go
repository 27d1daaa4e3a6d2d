package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"streetwalk/internal/model"
	"streetwalk/internal/repository"
)

// ErrUnavailable is returned once every retry attempt against the external
// geocoding service has been exhausted.
var ErrUnavailable = errors.New("geocoding service unavailable")

// Result is a resolved place. A nil Result with a nil error means the query
// legitimately matched nothing.
type Result struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

// Resolver resolves a free-text place name to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Result, error)
}

// Options tunes the client. Zero values fall back to the defaults below.
type Options struct {
	BaseURL     string
	UserAgent   string
	MaxAttempts int
	BaseSleep   time.Duration
	Timeout     time.Duration
	PositiveTTL time.Duration
	NegativeTTL time.Duration
}

const (
	defaultMaxAttempts = 4
	defaultBaseSleep   = 600 * time.Millisecond
	defaultTimeout     = 10 * time.Second
	defaultPositiveTTL = 30 * 24 * time.Hour
	defaultNegativeTTL = 6 * time.Hour
)

// Client calls the external geocoding endpoint, retrying transient failures
// with exponential backoff and consulting the cache before every call.
// Concurrent misses for the same query may each call the external service;
// the last write to the cache wins.
type Client struct {
	httpClient  *http.Client
	cache       repository.GeocodeCacheRepository
	baseURL     string
	userAgent   string
	maxAttempts int
	baseSleep   time.Duration
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// NewClient builds a Client over the given cache repository.
func NewClient(cache repository.GeocodeCacheRepository, opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BaseSleep <= 0 {
		opts.BaseSleep = defaultBaseSleep
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PositiveTTL <= 0 {
		opts.PositiveTTL = defaultPositiveTTL
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = defaultNegativeTTL
	}

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		cache:       cache,
		baseURL:     opts.BaseURL,
		userAgent:   opts.UserAgent,
		maxAttempts: opts.MaxAttempts,
		baseSleep:   opts.BaseSleep,
		positiveTTL: opts.PositiveTTL,
		negativeTTL: opts.NegativeTTL,
	}
}

// Normalize produces the cache key for a query: trimmed and lower-cased.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Resolve returns the coordinates for a free-text place name, or (nil, nil)
// when the place matches nothing. A cached negative result short-circuits
// the external call until its TTL lapses.
func (c *Client) Resolve(ctx context.Context, query string) (*Result, error) {
	normalized := Normalize(query)
	if normalized == "" {
		return nil, nil
	}

	entry, err := c.cache.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if !entry.Found {
			return nil, nil
		}
		return &Result{Lat: entry.Lat, Lng: entry.Lng, DisplayName: entry.DisplayName}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			// Pure exponential backoff, no jitter: base * 2^(attempt-1)
			delay := c.baseSleep * time.Duration(1<<(attempt-2))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, found, err := c.fetch(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}

		if !found {
			c.store(ctx, normalized, nil)
			return nil, nil
		}
		c.store(ctx, normalized, result)
		return result, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// place mirrors the candidate shape returned by the external geocoder. Lat
// and lon arrive as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// fetch performs one call against the external endpoint. It returns
// found=false both for an empty candidate list and for candidates with
// malformed coordinates; only transport, server, and parse failures error.
func (c *Client) fetch(ctx context.Context, query string) (*Result, bool, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var candidates []place
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, false, err
	}

	if len(candidates) == 0 {
		return nil, false, nil
	}

	lat, latErr := strconv.ParseFloat(candidates[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(candidates[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		// Malformed coordinates count as "no result", not an error
		return nil, false, nil
	}

	return &Result{Lat: lat, Lng: lng, DisplayName: candidates[0].DisplayName}, true, nil
}

// store writes a cache entry; a nil result records a negative entry with the
// shorter TTL. Cache write failures are logged and swallowed so they never
// mask a resolved result.
func (c *Client) store(ctx context.Context, normalized string, result *Result) {
	entry := &model.GeocodeCacheEntry{Query: normalized}
	ttl := c.negativeTTL
	if result != nil {
		entry.Found = true
		entry.Lat = result.Lat
		entry.Lng = result.Lng
		entry.DisplayName = result.DisplayName
		ttl = c.positiveTTL
	}

	if err := c.cache.Store(ctx, entry, ttl); err != nil {
		log.Println("WARNING: failed to store geocode cache entry:", err)
	}
}
