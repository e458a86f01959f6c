package osm

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/apex/log"
)

const (
	// CacheGridSize is the grid size in meters for coordinate rounding (100m)
	CacheGridSize = 100.0
	// DefaultCacheTTL is how long cached results are valid
	DefaultCacheTTL = 24 * time.Hour
)

type gridKey struct {
	lat, lon float64
}

type cacheEntry struct {
	name      string
	expiresAt time.Time
}

// CachedGeocoder wraps the client with an in-memory reverse geocoding
// cache. Nearby clicks resolve to the same grid cell and share a lookup.
type CachedGeocoder struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[gridKey]cacheEntry
}

func NewCachedGeocoder(client *Client, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGeocoder{
		client:  client,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[gridKey]cacheEntry),
	}
}

// roundToGrid rounds a coordinate to the cache grid size
func roundToGrid(coord float64) float64 {
	// 1 degree is roughly 111,320 meters at the equator
	metersPerDegree := 111320.0
	gridDegrees := CacheGridSize / metersPerDegree
	return math.Round(coord/gridDegrees) * gridDegrees
}

func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	key := gridKey{roundToGrid(lat), roundToGrid(lon)}

	g.mu.Lock()
	e, ok := g.entries[key]
	g.mu.Unlock()
	if ok && g.now().Before(e.expiresAt) {
		log.Debugf("OSM cache hit for (%.6f, %.6f)", lat, lon)
		return e.name, nil
	}

	name, err := g.client.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.entries[key] = cacheEntry{name: name, expiresAt: g.now().Add(g.ttl)}
	g.mu.Unlock()
	return name, nil
}

// Search is not cached; free-text queries rarely repeat.
func (g *CachedGeocoder) Search(ctx context.Context, query string) (Place, error) {
	return g.client.Search(ctx, query)
}

// CleanExpired drops expired entries and returns how many were removed.
func (g *CachedGeocoder) CleanExpired() int {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k, e := range g.entries {
		if !now.Before(e.expiresAt) {
			delete(g.entries, k)
			n++
		}
	}
	return n
}
