package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/calendar-reminders/internal/weather"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// OpenMeteoClient talks to the Open-Meteo geocoding and forecast APIs. It
// implements both weather.Geocoder and weather.ForecastSource; neither
// endpoint needs an API key.
type OpenMeteoClient struct {
	geocodingURL string
	forecastURL  string
	httpCfg      HTTPClientConfig

	geocodeCircuit  *gobreaker.CircuitBreaker
	forecastCircuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient creates a client. Empty URLs select the public endpoints.
func NewOpenMeteoClient(client *http.Client, geocodingURL, forecastURL string) *OpenMeteoClient {
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	return &OpenMeteoClient{
		geocodingURL:    geocodingURL,
		forecastURL:     forecastURL,
		httpCfg:         defaultHTTPConfig(client),
		geocodeCircuit:  newCircuit("openmeteo-geocoding"),
		forecastCircuit: newCircuit("openmeteo-forecast"),
	}
}

func getter(rawURL string, values url.Values) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+values.Encode(), nil)
	}
}

// Geocode asks for the single best English match for city.
func (c *OpenMeteoClient) Geocode(ctx context.Context, city string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("name", city)
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.geocodeCircuit, getter(c.geocodingURL, values))
	if err != nil {
		return weather.Coordinates{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(payload.Results) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrLocationNotFound, city)
	}

	hit := payload.Results[0]
	return weather.Coordinates{Latitude: hit.Latitude, Longitude: hit.Longitude}, nil
}

// HourlyWeatherCodes fetches one local day of hourly WMO codes. Missing
// (null) codes come back as -1, which maps to weather.CategoryUnknown.
func (c *OpenMeteoClient) HourlyWeatherCodes(ctx context.Context, at weather.Coordinates, day string) (weather.HourlySeries, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	values.Set("hourly", "weathercode")
	values.Set("timezone", "auto")
	values.Set("start_date", day)
	values.Set("end_date", day)

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.forecastCircuit, getter(c.forecastURL, values))
	if err != nil {
		return weather.HourlySeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly *struct {
			Time        []string `json:"time"`
			WeatherCode []*int   `json:"weathercode"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.HourlySeries{}, fmt.Errorf("decode forecast response: %w", err)
	}
	if payload.Hourly == nil {
		return weather.HourlySeries{}, nil
	}

	codes := make([]int, len(payload.Hourly.WeatherCode))
	for i, code := range payload.Hourly.WeatherCode {
		codes[i] = -1
		if code != nil {
			codes[i] = *code
		}
	}
	return weather.HourlySeries{Times: payload.Hourly.Time, Codes: codes}, nil
}
