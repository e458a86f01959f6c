package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	// NominatimBaseURL is the public Nominatim API endpoint
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	// UserAgent is required by Nominatim usage policy
	UserAgent = "GreenMap Application v1.0"
	// Rate limit: 1 request per second for Nominatim
	minRequestInterval = time.Second
)

// ErrNotFound is returned by Search when Nominatim has no match.
var ErrNotFound = errors.New("location not found")

// Place is a geocoded point.
type Place struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

// Client handles Nominatim interactions with rate limiting
type Client struct {
	httpClient    *http.Client
	baseURL       string
	userAgent     string
	interval      time.Duration
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMinInterval overrides the minimum spacing between requests.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.interval = d }
}

// NewClient creates a new Nominatim client with rate limiting
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   NominatimBaseURL,
		userAgent: UserAgent,
		interval:  minRequestInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nominatimResponse is the subset of a jsonv2 reverse response we use.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// enforceRateLimit ensures we don't exceed Nominatim's rate limit
func (c *Client) enforceRateLimit(ctx context.Context) error {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.interval {
		timer := time.NewTimer(c.interval - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// ReverseGeocode returns the display name of the place at lat, lon. An
// empty name with a nil error means Nominatim knows nothing there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "jsonv2")

	var resp nominatimResponse
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return "", err
	}
	return resp.DisplayName, nil
}

// Search returns the best match for a free-text query.
func (c *Client) Search(ctx context.Context, query string) (Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad latitude %q in search result: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("bad longitude %q in search result: %w", results[0].Lon, err)
	}
	return Place{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.enforceRateLimit(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
