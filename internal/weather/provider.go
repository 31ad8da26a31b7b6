package weather

import (
	"context"
	"errors"
)

var (
	// ErrLocationNotFound is returned by a Geocoder when the lookup matched nothing.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoForecast is returned when a forecast source has no hourly data.
	ErrNoForecast = errors.New("no hourly forecast data")
)

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Coordinates, error)
}

// ForecastSource fetches hourly weather codes for a single local day
// ("YYYY-MM-DD") at the given coordinates, in the location's own timezone.
type ForecastSource interface {
	HourlyWeatherCodes(ctx context.Context, at Coordinates, day string) (HourlySeries, error)
}
