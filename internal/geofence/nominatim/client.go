// Package nominatim resolves place names with the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"landverify/internal/geofence"
	"landverify/pkg/platform/sentinel"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "LandVerifyAI/1.0 (contact@landverifyai.com)"
)

type Config struct {
	BaseURL   string
	UserAgent string
	// RequestsPerSecond is the usage-policy ceiling; Nominatim allows 1.
	RequestsPerSecond float64
	CacheTTL          time.Duration
	Timeout           time.Duration
	RetryMax          int
}

// Client is safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	cache     *cache.Cache
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = time.Second
	rc.RetryWaitMax = 4 * time.Second
	rc.Logger = logger

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &retryablehttp.RoundTripper{Client: rc},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:     cache.New(cfg.CacheTTL, 10*time.Minute),
		logger:    logger,
	}
}

type searchResult struct {
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	GeoJSON     json.RawMessage `json:"geojson"`
}

// Search returns the best match for query, or nil when nothing matches.
// Only positive results are cached.
func (c *Client) Search(ctx context.Context, query string) (*geofence.Place, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, ok := c.cache.Get(key); ok {
		place := v.(geofence.Place)
		return &place, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("polygon_geojson", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nominatim: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read nominatim response: %v", sentinel.ErrUnavailable, err)
	}
	c.logger.DebugContext(ctx, "nominatim.search",
		"query", query,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nominatim status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: decode nominatim response: %v", sentinel.ErrUnavailable, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	place, err := toPlace(results[0])
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, *place, cache.DefaultExpiration)
	return place, nil
}

func toPlace(r searchResult) (*geofence.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: nominatim lat %q", sentinel.ErrUnavailable, r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: nominatim lon %q", sentinel.ErrUnavailable, r.Lon)
	}
	name := r.Name
	if name == "" {
		name, _, _ = strings.Cut(r.DisplayName, ",")
	}
	return &geofence.Place{
		Name:        name,
		DisplayName: r.DisplayName,
		Center:      geofence.Point{Lat: lat, Lng: lng},
		Boundary:    geofence.ParseBoundary(r.GeoJSON),
	}, nil
}
