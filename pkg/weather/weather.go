// Package weather fetches current conditions from Open-Meteo and maps them
// onto the categories the dispersion model works with.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hectormalot/omgo"
	"github.com/nathan-osman/go-sunrise"

	"scentline/pkg/envelope"
	"scentline/pkg/store"
	"scentline/pkg/tracker"
)

const provider = "open-meteo"

// Observation is a snapshot of conditions at a location.
type Observation struct {
	TemperatureF  float64   `json:"temperature_f"`
	HumidityPct   float64   `json:"humidity_pct"`
	WindFromDeg   float64   `json:"wind_from_deg"`
	WindSpeedMph  float64   `json:"wind_speed_mph"`
	CloudCoverPct float64   `json:"cloud_cover_pct"`
	PrecipMMH     float64   `json:"precip_mmh"`
	RecentRain    bool      `json:"recent_rain"`
	WeatherCode   int       `json:"weather_code"`
	Night         bool      `json:"night"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Service fetches observations, with a short-lived cache so repeated envelope
// recomputations for the same operation do not hammer the API.
type Service struct {
	client  omgo.Client
	cache   store.CacheStore
	tracker *tracker.Tracker
	ttl     time.Duration
	now     func() time.Time
}

// New creates a weather service.
func New(cache store.CacheStore, t *tracker.Tracker, ttl time.Duration) (*Service, error) {
	client, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create open-meteo client: %w", err)
	}
	return &Service{
		client:  client,
		cache:   cache,
		tracker: t,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Observe returns current conditions at the given coordinates.
func (s *Service) Observe(ctx context.Context, lat, lon float64) (*Observation, error) {
	key := fmt.Sprintf("weather:%.3f,%.3f", lat, lon)
	if obs := s.cached(ctx, key); obs != nil {
		return obs, nil
	}

	loc, err := omgo.NewLocation(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}

	opts := &omgo.Options{
		TemperatureUnit: "fahrenheit",
		WindspeedUnit:   "mph",
		Timezone:        "auto",
		PastDays:        1,
		HourlyMetrics: []string{
			"relative_humidity_2m", "cloud_cover", "precipitation",
		},
	}

	forecast, err := s.client.Forecast(ctx, loc, opts)
	if err != nil {
		s.tracker.TrackAPIFailure(provider)
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	s.tracker.TrackAPISuccess(provider)

	now := s.now().UTC()
	obs := &Observation{
		TemperatureF: forecast.CurrentWeather.Temperature,
		WindFromDeg:  forecast.CurrentWeather.WindDirection,
		WindSpeedMph: forecast.CurrentWeather.WindSpeed,
		WeatherCode:  int(forecast.CurrentWeather.WeatherCode),
		Night:        isNight(lat, lon, now),
		FetchedAt:    now,
	}

	idx := nearestHour(forecast.HourlyTimes, now)
	if idx >= 0 {
		obs.HumidityPct = hourlyAt(forecast.HourlyMetrics, "relative_humidity_2m", idx)
		obs.CloudCoverPct = hourlyAt(forecast.HourlyMetrics, "cloud_cover", idx)
		obs.PrecipMMH = hourlyAt(forecast.HourlyMetrics, "precipitation", idx)
		obs.RecentRain = recentRain(forecast.HourlyMetrics["precipitation"], idx)
	}

	s.store(ctx, key, obs)
	return obs, nil
}

// Conditions maps the observation onto the dispersion model categories.
// Terrain and stability are not observable from a weather feed and keep the
// caller-supplied values.
func (o *Observation) Conditions(base envelope.Conditions) envelope.Conditions {
	c := base
	c.TemperatureF = o.TemperatureF
	c.HumidityPct = o.HumidityPct
	c.Cloud = o.cloud()
	c.Precip = o.precip()
	c.RecentRain = o.RecentRain
	return c
}

func (o *Observation) cloud() envelope.Cloud {
	if o.Night {
		return envelope.CloudNight
	}
	switch {
	case o.CloudCoverPct < 25:
		return envelope.CloudClear
	case o.CloudCoverPct < 75:
		return envelope.CloudPartly
	default:
		return envelope.CloudOvercast
	}
}

func (o *Observation) precip() envelope.Precip {
	// WMO intensity breakpoints for rain rate in mm/h
	switch {
	case o.PrecipMMH <= 0:
		return envelope.PrecipNone
	case o.PrecipMMH < 2.5:
		return envelope.PrecipLight
	case o.PrecipMMH < 7.6:
		return envelope.PrecipModerate
	default:
		return envelope.PrecipHeavy
	}
}

func (s *Service) cached(ctx context.Context, key string) *Observation {
	data, hit := s.cache.GetCache(ctx, key)
	if !hit {
		s.tracker.TrackCacheMiss(provider)
		return nil
	}

	var obs Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		slog.Warn("Discarding unreadable weather cache entry", "key", key, "error", err)
		s.tracker.TrackCacheMiss(provider)
		return nil
	}
	if s.now().Sub(obs.FetchedAt) > s.ttl {
		s.tracker.TrackCacheMiss(provider)
		return nil
	}
	s.tracker.TrackCacheHit(provider)
	return &obs
}

func (s *Service) store(ctx context.Context, key string, obs *Observation) {
	data, err := json.Marshal(obs)
	if err != nil {
		return
	}
	if err := s.cache.SetCache(ctx, key, data); err != nil {
		slog.Error("Failed to cache weather observation", "key", key, "error", err)
	}
}

func isNight(lat, lon float64, now time.Time) bool {
	rise, set := sunrise.SunriseSunset(lat, lon, now.Year(), now.Month(), now.Day())
	if rise.IsZero() && set.IsZero() {
		// Polar day or night: fall back to the sun never rising meaning night
		return true
	}
	return now.Before(rise) || now.After(set)
}

// nearestHour returns the index of the hourly slot closest to now, or -1.
func nearestHour(times []time.Time, now time.Time) int {
	best := -1
	bestDiff := math.MaxFloat64
	for i, t := range times {
		diff := math.Abs(now.Sub(t).Seconds())
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return best
}

func hourlyAt(metrics map[string][]float64, name string, idx int) float64 {
	vals, ok := metrics[name]
	if !ok || idx >= len(vals) {
		return 0
	}
	return vals[idx]
}

// recentRain reports measurable precipitation in the three hours before idx.
func recentRain(precip []float64, idx int) bool {
	for i := idx - 3; i < idx; i++ {
		if i >= 0 && i < len(precip) && precip[i] > 0 {
			return true
		}
	}
	return false
}
