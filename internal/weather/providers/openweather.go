package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/calendar-reminders/internal/weather"
)

const DefaultOpenWeatherGeocodingURL = "https://api.openweathermap.org/geo/1.0/direct"

// OpenWeatherGeocoder implements weather.Geocoder with the OpenWeatherMap
// direct geocoding API.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherGeocoder(client *http.Client, apiKey, baseURL string) *OpenWeatherGeocoder {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherGeocodingURL
	}
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("openweather-geocoding"),
	}
}

func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, city string) (weather.Coordinates, error) {
	if g.apiKey == "" {
		return weather.Coordinates{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", g.apiKey)

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, getter(g.baseURL, values))
	if err != nil {
		return weather.Coordinates{}, err
	}
	defer resp.Body.Close()

	var payload []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("decode openweather geocoding response: %w", err)
	}
	if len(payload) == 0 {
		return weather.Coordinates{}, fmt.Errorf("%w: %q", weather.ErrLocationNotFound, city)
	}

	return weather.Coordinates{Latitude: payload[0].Lat, Longitude: payload[0].Lon}, nil
}
