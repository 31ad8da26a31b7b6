package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/calendar-reminders/internal/storage"
	"github.com/i474232898/calendar-reminders/internal/weather/providers"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration

	// Where reminders and the month anchor are persisted.
	StorageDriver string
	StoragePath   string
	RedisAddr     string

	GeocodingURL string
	ForecastURL  string

	// Either key switches geocoding away from Open-Meteo; Google wins when
	// both are set.
	GoogleGeocoderAPIKey string
	OpenWeatherAPIKey    string

	GeocodeCacheTTL    time.Duration
	CacheSweepInterval time.Duration

	// LookupTimeout bounds one weather resolution made on behalf of a save.
	LookupTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		StorageDriver:        getenvDefault("STORAGE_DRIVER", storage.DriverFile),
		StoragePath:          getenvDefault("STORAGE_PATH", storage.DefaultDir),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		GeocodingURL:         getenvDefault("GEOCODING_URL", providers.DefaultGeocodingURL),
		ForecastURL:          getenvDefault("FORECAST_URL", providers.DefaultForecastURL),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		OpenWeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "6h"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout, err = getenvDuration("WEATHER_LOOKUP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case storage.DriverFile, storage.DriverSQLite, storage.DriverMemory:
	case storage.DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("invalid STORAGE_DRIVER: redis requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}

	if p, err := strconv.Atoi(cfg.Port); err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
