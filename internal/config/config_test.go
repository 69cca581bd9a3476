// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectLogLevel                = slog.LevelInfo
		expectWindowSize              = 5
		expectEntryAccuracy           = 50.0
		expectPublishAccuracy         = 10.0
		expectRadius                  = 25.0
		expectIntervalOutput          = time.Second * 30
		expectIntervalConditionsUpate = time.Minute * 15
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Errorf("failed to load config: %s", err)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Tracking.WindowSize != expectWindowSize {
			t.Errorf("expected window size to be: %d, got %d", expectWindowSize, conf.Tracking.WindowSize)
		}
		if conf.Tracking.EntryAccuracy != expectEntryAccuracy {
			t.Errorf("expected entry accuracy to be: %f, got %f", expectEntryAccuracy,
				conf.Tracking.EntryAccuracy)
		}
		if conf.Tracking.PublishAccuracy != expectPublishAccuracy {
			t.Errorf("expected publish accuracy to be: %f, got %f", expectPublishAccuracy,
				conf.Tracking.PublishAccuracy)
		}
		if conf.Geofence.Radius != expectRadius {
			t.Errorf("expected geofence radius to be: %f, got %f", expectRadius, conf.Geofence.Radius)
		}
		if conf.Intervals.Output != expectIntervalOutput {
			t.Errorf("expected output interval to be: %s, got %s", expectIntervalOutput, conf.Intervals.Output)
		}
		if conf.Intervals.ConditionsUpdate != expectIntervalConditionsUpate {
			t.Errorf("expected conditions update interval to be: %s, got %s", expectIntervalConditionsUpate,
				conf.Intervals.ConditionsUpdate)
		}
		if conf.Templates.Text != DefaultTextTpl {
			t.Errorf("expected default text template, got %q", conf.Templates.Text)
		}
		if conf.Templates.Tooltip != DefaultTooltipTpl {
			t.Errorf("expected default tooltip template, got %q", conf.Templates.Tooltip)
		}
		if conf.Database.Path == "" {
			t.Error("expected database path to have a default")
		}
	})
	t.Run("new config with invalid values from env", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			// zero values are not testable through the env, fig re-applies
			// the struct-tag default for them
			{"invalid log level", "PARKTRACK_LOGLEVEL", "invalid"},
			{"negative window size", "PARKTRACK_TRACKING_WINDOW_SIZE", "-1"},
			{"negative entry accuracy", "PARKTRACK_TRACKING_ENTRY_ACCURACY", "-5"},
			{"publish above entry accuracy", "PARKTRACK_TRACKING_PUBLISH_ACCURACY", "200"},
			{"negative radius", "PARKTRACK_GEOFENCE_RADIUS", "-1"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv(tc.key, tc.value)
				if _, err := New(); err == nil {
					t.Error("expected config to fail, but didn't")
				}
			})
		}
	})
	t.Run("values from env override defaults", func(t *testing.T) {
		t.Setenv("PARKTRACK_GEOFENCE_RADIUS", "42")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Geofence.Radius != 42 {
			t.Errorf("expected geofence radius to be 42, got %f", conf.Geofence.Radius)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	validConf := func() *Config {
		conf := new(Config)
		conf.Tracking.WindowSize = 5
		conf.Tracking.EntryAccuracy = 50
		conf.Tracking.PublishAccuracy = 10
		conf.Geofence.Radius = 25
		return conf
	}
	t.Run("zero values fail validation", func(t *testing.T) {
		tests := []struct {
			name   string
			confFn func(*Config)
		}{
			{"zero window size", func(c *Config) { c.Tracking.WindowSize = 0 }},
			{"zero entry accuracy", func(c *Config) { c.Tracking.EntryAccuracy = 0 }},
			{"zero publish accuracy", func(c *Config) { c.Tracking.PublishAccuracy = 0 }},
			{"zero radius", func(c *Config) { c.Geofence.Radius = 0 }},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				conf := validConf()
				tc.confFn(conf)
				if err := conf.Validate(); err == nil {
					t.Error("expected validation to fail, but didn't")
				}
			})
		}
	})
	t.Run("empty templates fall back to the defaults", func(t *testing.T) {
		conf := validConf()
		if err := conf.Validate(); err != nil {
			t.Fatalf("failed to validate config: %s", err)
		}
		if conf.Templates.Text != DefaultTextTpl {
			t.Errorf("expected default text template, got %q", conf.Templates.Text)
		}
		if conf.Templates.AltText != DefaultAltTextTpl {
			t.Errorf("expected default alt text template, got %q", conf.Templates.AltText)
		}
		if conf.Templates.Tooltip != DefaultTooltipTpl {
			t.Errorf("expected default tooltip template, got %q", conf.Templates.Tooltip)
		}
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("missing config file fails", func(t *testing.T) {
		if _, err := NewFromFile(t.TempDir(), "does-not-exist.toml"); err == nil {
			t.Error("expected config load to fail")
		}
	})
}
