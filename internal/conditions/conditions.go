// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package conditions retrieves current weather conditions and daylight
// information for the visitor's position. Park experiences use it to
// decide between day and night variants of an AR scene and to warn
// about weather that makes outdoor stations unpleasant.
package conditions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/logger"

	"github.com/hectormalot/omgo"
	"github.com/nathan-osman/go-sunrise"
)

const FetchTimeout = time.Second * 10

var hourlyMetrics = []string{
	"temperature_2m", "apparent_temperature", "weather_code", "wind_speed_10m", "is_day",
	"wind_direction_10m", "relative_humidity_2m", "pressure_msl",
}

// Report is a snapshot of the conditions at a position.
type Report struct {
	FetchedAt        time.Time
	Coordinate       geo.Coordinate
	Temperature      float64
	TemperatureUnit  string
	WeatherCode      int
	WindSpeed        float64
	WindDirection    float64
	RelativeHumidity float64
	SunriseTime      time.Time
	SunsetTime       time.Time
	IsDaytime        bool
}

// Monitor fetches weather data from the Open-Meteo API and keeps the
// latest report available for concurrent readers.
type Monitor struct {
	logger *logger.Logger
	client omgo.Client
	now    func() time.Time

	mu     sync.RWMutex
	report *Report
}

func NewMonitor(log *logger.Logger) (*Monitor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}
	return &Monitor{logger: log, client: client, now: time.Now}, nil
}

// Update fetches a fresh forecast for the given position and replaces the
// stored report. A failed fetch keeps the previous report in place.
func (m *Monitor) Update(ctx context.Context, coord geo.Coordinate) error {
	if !coord.Valid() {
		return fmt.Errorf("invalid coordinate")
	}

	ctxFetch, cancelFetch := context.WithTimeout(ctx, FetchTimeout)
	defer cancelFetch()

	location, err := omgo.NewLocation(coord.Lat, coord.Lon)
	if err != nil {
		return fmt.Errorf("failed to create forecast location: %w", err)
	}
	opts := &omgo.Options{
		Timezone:      "auto",
		HourlyMetrics: hourlyMetrics,
	}
	forecast, err := m.client.Forecast(ctxFetch, location, opts)
	if err != nil {
		return fmt.Errorf("failed to get forecast data: %w", err)
	}

	now := m.now()
	sunriseTime, sunsetTime, isDay := Daylight(coord, now)
	report := &Report{
		FetchedAt:       now,
		Coordinate:      coord,
		Temperature:     forecast.CurrentWeather.Temperature,
		TemperatureUnit: forecast.HourlyUnits["temperature_2m"],
		WeatherCode:     int(forecast.CurrentWeather.WeatherCode),
		WindSpeed:       forecast.CurrentWeather.WindSpeed,
		WindDirection:   forecast.CurrentWeather.WindDirection,
		SunriseTime:     sunriseTime,
		SunsetTime:      sunsetTime,
		IsDaytime:       isDay,
	}
	if humidity, ok := hourlyValue(forecast, "relative_humidity_2m", now); ok {
		report.RelativeHumidity = humidity
	}

	m.mu.Lock()
	m.report = report
	m.mu.Unlock()
	m.logger.Debug("updated conditions report", "weather_code", report.WeatherCode,
		"temperature", report.Temperature)

	return nil
}

// Report returns the latest conditions report. The second return value is
// false until the first successful update.
func (m *Monitor) Report() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.report == nil {
		return Report{}, false
	}
	return *m.report, true
}

// Daylight computes sunrise and sunset for the position's date and whether
// the given time falls between them.
func Daylight(coord geo.Coordinate, at time.Time) (time.Time, time.Time, bool) {
	sunriseTime, sunsetTime := sunrise.SunriseSunset(coord.Lat, coord.Lon, at.Year(),
		at.Month(), at.Day())
	isDay := at.After(sunriseTime) && at.Before(sunsetTime)
	return sunriseTime, sunsetTime, isDay
}

func hourlyValue(forecast *omgo.Forecast, metric string, at time.Time) (float64, bool) {
	values, ok := forecast.HourlyMetrics[metric]
	if !ok {
		return 0, false
	}
	hour := at.Truncate(time.Hour)
	for i, t := range forecast.HourlyTimes {
		if t.Equal(hour) && i < len(values) {
			return values[i], true
		}
	}
	return 0, false
}
