package weather

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CategoryForCode maps a WMO weather interpretation code to a Category.
// Codes outside the table map to CategoryUnknown.
func CategoryForCode(code int) Category {
	switch code {
	case 0:
		return CategoryClear
	case 1, 2, 3:
		return CategoryClouds
	case 45, 48:
		return CategoryFog
	case 51, 53, 55, 56, 57:
		return CategoryDrizzle
	case 61, 63, 65, 66, 67:
		return CategoryRain
	case 71, 73, 75, 77:
		return CategorySnow
	case 80, 81, 82:
		return CategoryRainShowers
	case 85, 86:
		return CategorySnowShowers
	case 95, 96, 99:
		return CategoryThunderstorm
	default:
		return CategoryUnknown
	}
}

// RoundToNearestHour rounds an "HH:MM" time to "HH:00". Minutes from 30 up
// round to the next hour and 23 wraps to 00 (the date is not advanced).
func RoundToNearestHour(hhmm string) (string, error) {
	hStr, mStr, _ := strings.Cut(hhmm, ":")
	h, err := strconv.Atoi(hStr)
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	m := 0
	if mStr != "" {
		m, err = strconv.Atoi(mStr)
		if err != nil || m < 0 || m > 59 {
			return "", fmt.Errorf("invalid minute in %q", hhmm)
		}
	}
	if m >= 30 {
		h = (h + 1) % 24
	}
	return fmt.Sprintf("%02d:00", h), nil
}

var hourLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseHour(s string) (time.Time, error) {
	for _, layout := range hourLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized forecast timestamp %q", s)
}

// SelectCode picks the weather code for targetKey ("YYYY-MM-DDTHH:00") from
// series. An exact timestamp match wins; otherwise the entry closest in time
// is used, keeping the first one seen when two are equally close. Entries
// with unparseable timestamps are skipped by the nearest search, and the
// first entry is the fallback if none parse. ok is false for an empty series.
func SelectCode(series HourlySeries, targetKey string) (code int, ok bool) {
	n := series.Len()
	if n == 0 {
		return 0, false
	}

	for i := 0; i < n; i++ {
		if series.Times[i] == targetKey {
			return series.Codes[i], true
		}
	}

	best := 0
	target, err := parseHour(targetKey)
	if err != nil {
		return series.Codes[best], true
	}

	bestDiff := time.Duration(math.MaxInt64)
	for i := 0; i < n; i++ {
		ts, err := parseHour(series.Times[i])
		if err != nil {
			continue
		}
		diff := ts.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return series.Codes[best], true
}

// Resolver turns coordinates and a local date/time into a Category using an
// hourly ForecastSource.
type Resolver struct {
	source ForecastSource
}

func NewResolver(source ForecastSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the category for the hour nearest to hhmm on date's day.
// It fails with ErrNoForecast when the source returns no hourly data.
func (r *Resolver) Resolve(ctx context.Context, at Coordinates, date time.Time, hhmm string) (Category, error) {
	hour, err := RoundToNearestHour(hhmm)
	if err != nil {
		return "", err
	}

	day := date.Format("2006-01-02")
	series, err := r.source.HourlyWeatherCodes(ctx, at, day)
	if err != nil {
		return "", fmt.Errorf("fetch hourly forecast for %s: %w", day, err)
	}

	code, ok := SelectCode(series, day+"T"+hour)
	if !ok {
		return "", ErrNoForecast
	}
	return CategoryForCode(code), nil
}
