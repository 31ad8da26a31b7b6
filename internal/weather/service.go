package weather

import (
	"context"
	"errors"
	"log"
	"time"
)

// Outcome labels how a Summarize call ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeNoLocation Outcome = "no_location"
	OutcomeNoData     Outcome = "no_data"
	OutcomeError      Outcome = "error"
)

// Recorder is notified of every Summarize outcome.
type Recorder interface {
	ObserveLookup(outcome Outcome)
}

// Service resolves a city and a local date/time to a weather Category by
// geocoding the city and reading its hourly forecast.
type Service struct {
	geocoder Geocoder
	resolver *Resolver
	recorder Recorder
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder reports lookup outcomes to rec.
func WithRecorder(rec Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = rec
	}
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, forecasts ForecastSource, opts ...ServiceOption) *Service {
	s := &Service{
		geocoder: geocoder,
		resolver: NewResolver(forecasts),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns the weather category for city at hhmm on date's day.
// It never fails: a city that cannot be located, a forecast without data,
// transport errors and even panics all come back as ok == false.
func (s *Service) Summarize(ctx context.Context, city string, date time.Time, hhmm string) (cat Category, ok bool) {
	outcome := OutcomeError
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: weather summary for %q panicked: %v", city, r)
			cat, ok, outcome = "", false, OutcomeError
		}
		if s.recorder != nil {
			s.recorder.ObserveLookup(outcome)
		}
	}()

	at, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			outcome = OutcomeNoLocation
			log.Printf("INFO: no location found for %q", city)
		} else {
			log.Printf("ERROR: geocoding %q failed: %v", city, err)
		}
		return "", false
	}

	cat, err = s.resolver.Resolve(ctx, at, date, hhmm)
	if err != nil {
		if errors.Is(err, ErrNoForecast) {
			outcome = OutcomeNoData
			log.Printf("INFO: no forecast data for %q on %s", city, date.Format("2006-01-02"))
		} else {
			log.Printf("ERROR: forecast lookup for %q failed: %v", city, err)
		}
		return "", false
	}

	log.Printf("DEBUG: weather for %q on %s at %s: %s", city, date.Format("2006-01-02"), hhmm, cat)
	outcome = OutcomeOK
	return cat, true
}
