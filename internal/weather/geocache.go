package weather

import (
	"context"
	"strings"

	"github.com/i474232898/calendar-reminders/internal/cache"
)

// CachingGeocoder remembers successful lookups of another Geocoder. Misses
// and failures are never cached.
type CachingGeocoder struct {
	next  Geocoder
	cache *cache.Cache[string, Coordinates]
}

func NewCachingGeocoder(next Geocoder, c *cache.Cache[string, Coordinates]) *CachingGeocoder {
	return &CachingGeocoder{next: next, cache: c}
}

func (g *CachingGeocoder) Geocode(ctx context.Context, city string) (Coordinates, error) {
	key := strings.ToLower(strings.Join(strings.Fields(city), " "))
	if at, ok := g.cache.Get(key); ok {
		return at, nil
	}

	at, err := g.next.Geocode(ctx, city)
	if err != nil {
		return Coordinates{}, err
	}
	g.cache.Set(key, at)
	return at, nil
}
