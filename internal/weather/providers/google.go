package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/calendar-reminders/internal/weather"
)

// geocoder keeps its API key in a package variable; only its assignment is
// guarded.
var googleKeyMu sync.Mutex

// GoogleGeocoder resolves cities through the Google Geocoding API. It is
// used instead of Open-Meteo geocoding when an API key is configured.
// Lookups run concurrently.
type GoogleGeocoder struct {
	circuit *gobreaker.CircuitBreaker
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	googleKeyMu.Lock()
	geocoder.ApiKey = apiKey
	googleKeyMu.Unlock()

	return &GoogleGeocoder{
		circuit: newCircuit("google-geocoding"),
		lookup:  geocoder.Geocoding,
	}
}

// Geocode looks city up. The underlying client has no context support, so a
// cancelled ctx abandons the call rather than aborting it.
func (g *GoogleGeocoder) Geocode(ctx context.Context, city string) (weather.Coordinates, error) {
	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	go func() {
		res, err := g.circuit.Execute(func() (interface{}, error) {
			return g.lookup(geocoder.Address{City: city})
		})
		if err != nil {
			done <- result{err: err}
			return
		}
		loc, _ := res.(geocoder.Location)
		done <- result{loc: loc}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			if strings.Contains(r.err.Error(), "ZERO_RESULTS") {
				return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrLocationNotFound, city)
			}
			return weather.Coordinates{}, fmt.Errorf("google geocoding: %w", r.err)
		}
		return weather.Coordinates{Latitude: r.loc.Latitude, Longitude: r.loc.Longitude}, nil
	}
}
