package main

import (
	"log"
	"net/http"

	"github.com/i474232898/calendar-reminders/internal/cache"
	"github.com/i474232898/calendar-reminders/internal/config"
	"github.com/i474232898/calendar-reminders/internal/editor"
	"github.com/i474232898/calendar-reminders/internal/metrics"
	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/storage"
	"github.com/i474232898/calendar-reminders/internal/weather"
	"github.com/i474232898/calendar-reminders/internal/weather/providers"
)

// components is the wired application shared by every command.
type components struct {
	repo     *reminder.Repository
	editor   *editor.Editor
	weather  *weather.Service
	metrics  *metrics.Metrics
	geocodes *cache.Cache[string, weather.Coordinates]
}

func build(cfg *config.AppConfig) (*components, error) {
	backend, err := storage.Open(cfg.StorageDriver, cfg.StoragePath, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: storing reminders with the %s driver", cfg.StorageDriver)

	m := metrics.New()
	repo := reminder.NewRepository(storage.NewAdapter(backend))
	repo.Subscribe(m.ObserveMutation)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	openMeteo := providers.NewOpenMeteoClient(httpClient, cfg.GeocodingURL, cfg.ForecastURL)

	var geocoder weather.Geocoder = openMeteo
	switch {
	case cfg.GoogleGeocoderAPIKey != "":
		log.Println("INFO: geocoding cities with the Google geocoder")
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	case cfg.OpenWeatherAPIKey != "":
		log.Println("INFO: geocoding cities with OpenWeatherMap")
		geocoder = providers.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey, "")
	}

	geocodes := cache.New[string, weather.Coordinates](cfg.GeocodeCacheTTL)
	svc := weather.NewService(
		weather.NewCachingGeocoder(geocoder, geocodes),
		openMeteo,
		weather.WithRecorder(m),
	)

	return &components{
		repo:     repo,
		editor:   editor.New(repo, svc, cfg.LookupTimeout),
		weather:  svc,
		metrics:  m,
		geocodes: geocodes,
	}, nil
}
