// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "PARKTRACK"

	DefaultTextTpl = "{{.QualityIcon}} {{if .Nearest}}{{trunc .Nearest.Title 24}} · " +
		"{{dist .Nearest.Distance}}{{else}}{{loc \"no sights nearby\"}}{{end}}"
	DefaultAltTextTpl = "{{.QualityIcon}} {{floatFormat .Accuracy 1}}m · {{lc .Quality}}"
	DefaultTooltipTpl = "{{loc \"Position quality\"}}: {{lc .Quality}} ({{floatFormat .Accuracy 1}}m)\n" +
		"{{loc \"Stable\"}}: {{.Stable}}\n" +
		"{{range .ActiveGeofences}}{{.Title}}: {{dist .Distance}}\n{{end}}" +
		"{{if .HasConditions}}{{loc \"Sunrise\"}}: {{timeFormat .SunriseTime \"15:04\"}} · " +
		"{{loc \"Sunset\"}}: {{timeFormat .SunsetTime \"15:04\"}}\n{{end}}" +
		"{{loc \"Updated\"}}: {{localizedTime .UpdatedAt}}"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Tracking struct {
		// WindowSize is the number of samples in the averaging window.
		WindowSize int `fig:"window_size" default:"5"`
		// EntryAccuracy is the worst accuracy in meters still entering the
		// position history.
		EntryAccuracy float64 `fig:"entry_accuracy" default:"50"`
		// PublishAccuracy is the worst accuracy in meters still allowed to move
		// the published position.
		PublishAccuracy    float64       `fig:"publish_accuracy" default:"10"`
		UpdateInterval     time.Duration `fig:"update_interval" default:"2s"`
		StabilityWindow    time.Duration `fig:"stability_window" default:"5s"`
		StabilityThreshold float64       `fig:"stability_threshold" default:"3"`
		RequireStability   bool          `fig:"require_stability"`
	} `fig:"tracking"`

	Geofence struct {
		// Radius is the geofence evaluation radius in meters.
		Radius float64 `fig:"radius" default:"25"`
	} `fig:"geofence"`

	Intervals struct {
		Output           time.Duration `fig:"output" default:"30s"`
		ConditionsUpdate time.Duration `fig:"conditions_update" default:"15m"`
	} `fig:"intervals"`

	Database struct {
		Path string `fig:"path"`
	} `fig:"database"`

	Location struct {
		DisableGPSD    bool   `fig:"disable_gpsd"`
		GPSDHost       string `fig:"gpsd_host" default:"localhost"`
		GPSDPort       string `fig:"gpsd_port" default:"2947"`
		DisableGeoClue bool   `fig:"disable_geoclue"`
		DisableICHNAEA bool   `fig:"disable_ichnaea"`
		// ForceGrant skips the location-permission agent check.
		ForceGrant bool `fig:"force_grant"`
	} `fig:"location"`

	Templates struct {
		Text    string `fig:"text"`
		AltText string `fig:"alt_text"`
		Tooltip string `fig:"tooltip"`
	} `fig:"templates"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Tracking.WindowSize < 1 {
		return fmt.Errorf("invalid averaging window size: %d", c.Tracking.WindowSize)
	}
	if c.Tracking.EntryAccuracy <= 0 {
		return fmt.Errorf("invalid entry accuracy: %f", c.Tracking.EntryAccuracy)
	}
	if c.Tracking.PublishAccuracy <= 0 || c.Tracking.PublishAccuracy > c.Tracking.EntryAccuracy {
		return fmt.Errorf("invalid publish accuracy: %f", c.Tracking.PublishAccuracy)
	}
	if c.Geofence.Radius <= 0 {
		return fmt.Errorf("invalid geofence radius: %f", c.Geofence.Radius)
	}
	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.AltText == "" {
		c.Templates.AltText = DefaultAltTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}
	if c.Database.Path == "" {
		home, _ := os.UserHomeDir()
		c.Database.Path = filepath.Join(home, ".local", "share", "parktrack", "parktrack.db")
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
