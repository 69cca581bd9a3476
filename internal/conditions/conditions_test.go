// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package conditions

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/logger"
)

var berlin = geo.Coordinate{Lon: 13.405, Lat: 52.52}

func testMonitor(t *testing.T, handler http.HandlerFunc) *Monitor {
	t.Helper()
	monitor, err := NewMonitor(logger.New(slog.LevelDebug))
	if err != nil {
		t.Fatalf("failed to create monitor: %s", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	monitor.client.URL = server.URL
	return monitor
}

func forecastPayload(at time.Time) string {
	hour := at.Truncate(time.Hour).Format("2006-01-02T15:04")
	return fmt.Sprintf(`{
		"latitude": 52.52, "longitude": 13.405, "elevation": 34.0, "generationtime_ms": 0.2,
		"current_weather": {"time": %q, "temperature": 21.4, "windspeed": 11.2,
			"winddirection": 180.0, "weathercode": 3},
		"hourly_units": {"temperature_2m": "°C", "relative_humidity_2m": "%%"},
		"hourly": {"time": [%q], "temperature_2m": [21.4], "relative_humidity_2m": [63.0]}
	}`, hour, hour)
}

func TestMonitor_Update(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("successful update stores a report", func(t *testing.T) {
		monitor := testMonitor(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(forecastPayload(now)))
		})
		monitor.now = func() time.Time { return now }

		if _, ok := monitor.Report(); ok {
			t.Fatal("expected no report before the first update")
		}
		if err := monitor.Update(t.Context(), berlin); err != nil {
			t.Fatalf("failed to update conditions: %s", err)
		}

		report, ok := monitor.Report()
		if !ok {
			t.Fatal("expected a report after a successful update")
		}
		if report.Temperature != 21.4 {
			t.Errorf("expected temperature of 21.4, got %f", report.Temperature)
		}
		if report.TemperatureUnit != "°C" {
			t.Errorf("expected temperature unit °C, got %q", report.TemperatureUnit)
		}
		if report.WeatherCode != 3 {
			t.Errorf("expected weather code 3, got %d", report.WeatherCode)
		}
		if report.RelativeHumidity != 63.0 {
			t.Errorf("expected relative humidity of 63, got %f", report.RelativeHumidity)
		}
		if !report.IsDaytime {
			t.Error("expected midday in June to be daytime")
		}
		if !report.SunriseTime.Before(report.SunsetTime) {
			t.Error("expected sunrise to come before sunset")
		}
		if report.Coordinate != berlin {
			t.Errorf("expected report coordinate %+v, got %+v", berlin, report.Coordinate)
		}
	})
	t.Run("failed update keeps the previous report", func(t *testing.T) {
		fail := false
		monitor := testMonitor(t, func(w http.ResponseWriter, _ *http.Request) {
			if fail {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(forecastPayload(now)))
		})
		monitor.now = func() time.Time { return now }

		if err := monitor.Update(t.Context(), berlin); err != nil {
			t.Fatalf("failed to update conditions: %s", err)
		}
		fail = true
		if err := monitor.Update(t.Context(), berlin); err == nil {
			t.Fatal("expected the second update to fail")
		}

		report, ok := monitor.Report()
		if !ok || report.Temperature != 21.4 {
			t.Error("expected the previous report to survive a failed update")
		}
	})
	t.Run("invalid coordinate is rejected", func(t *testing.T) {
		monitor := testMonitor(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(forecastPayload(now)))
		})
		if err := monitor.Update(t.Context(), geo.Coordinate{Lon: 200}); err == nil {
			t.Error("expected update to fail for an invalid coordinate")
		}
	})
}

func TestDaylight(t *testing.T) {
	t.Run("midday is daytime", func(t *testing.T) {
		at := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
		sunriseTime, sunsetTime, isDay := Daylight(berlin, at)
		if !isDay {
			t.Error("expected midday in June to be daytime")
		}
		if !sunriseTime.Before(at) || !sunsetTime.After(at) {
			t.Errorf("expected %s to fall between sunrise %s and sunset %s", at, sunriseTime, sunsetTime)
		}
	})
	t.Run("night is not daytime", func(t *testing.T) {
		at := time.Date(2026, 6, 15, 23, 30, 0, 0, time.UTC)
		if _, _, isDay := Daylight(berlin, at); isDay {
			t.Error("expected late evening to be nighttime")
		}
	})
}
