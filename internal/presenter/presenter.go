// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders tracking snapshots into the templated status
// output of the daemon.
package presenter

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"
	"time"

	"github.com/wneessen/parktrack/internal/conditions"
	"github.com/wneessen/parktrack/internal/config"
	"github.com/wneessen/parktrack/internal/geofence"
	"github.com/wneessen/parktrack/internal/track"

	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"
)

// StatusData is the render context passed to the status templates.
type StatusData struct {
	SessionID string
	Tracking  bool

	HasPosition bool
	Latitude    float64
	Longitude   float64
	Accuracy    float64
	Quality     string
	QualityIcon string
	Stable      bool

	Nearest         *geofence.Entry
	ActiveGeofences []geofence.Entry

	HasConditions   bool
	Condition       string
	ConditionIcon   string
	Temperature     float64
	TemperatureUnit string
	SunriseTime     time.Time
	SunsetTime      time.Time

	UpdatedAt time.Time
}

type Presenter struct {
	TextTemplate    *template.Template
	AltTextTemplate *template.Template
	TooltipTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New creates a Presenter from the configured templates. Each template is
// parsed and rendered once against an empty context, so broken templates
// surface at startup instead of at output time.
func New(conf *config.Config, lang *spreak.Localizer, hum *humanize.Humanizer) (*Presenter, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is required")
	}
	if lang == nil || hum == nil {
		return nil, fmt.Errorf("localizer and humanizer are required")
	}

	pres := &Presenter{localizer: lang, humanizer: hum}
	templates := []struct {
		name   string
		text   string
		target **template.Template
	}{
		{"text", conf.Templates.Text, &pres.TextTemplate},
		{"alt_text", conf.Templates.AltText, &pres.AltTextTemplate},
		{"tooltip", conf.Templates.Tooltip, &pres.TooltipTemplate},
	}
	for _, tpl := range templates {
		parsed, err := template.New(tpl.name).Funcs(pres.templateFuncMap()).Parse(tpl.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", tpl.name, err)
		}
		var buf bytes.Buffer
		if err = parsed.Execute(&buf, StatusData{}); err != nil {
			return nil, fmt.Errorf("failed to render %s template: %w", tpl.name, err)
		}
		*tpl.target = parsed
	}

	return pres, nil
}

// BuildContext converts a tracking snapshot and an optional conditions report
// into the render context for the status templates.
func (p *Presenter) BuildContext(snap track.Snapshot, report *conditions.Report,
	updatedAt time.Time,
) StatusData {
	data := StatusData{
		SessionID:   snap.SessionID,
		Tracking:    snap.Tracking,
		Quality:     snap.Quality.String(),
		QualityIcon: p.qualityIcon(snap),
		Stable:      snap.Stable,
		UpdatedAt:   updatedAt,
	}

	if snap.UserPosition.IsSet() {
		coord := snap.UserPosition.Value()
		data.HasPosition = true
		data.Latitude = coord.Lat
		data.Longitude = coord.Lon
	}
	if snap.Accuracy.IsSet() {
		data.Accuracy = snap.Accuracy.Value()
	}

	if len(snap.ActiveGeofences) > 0 {
		entries := make([]geofence.Entry, len(snap.ActiveGeofences))
		copy(entries, snap.ActiveGeofences)
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Distance < entries[j].Distance
		})
		data.ActiveGeofences = entries
		data.Nearest = &entries[0]
	}

	if report != nil {
		category := weatherCategory(report.WeatherCode)
		data.HasConditions = true
		data.Condition = p.loc(category)
		data.ConditionIcon = conditionIcons[category][report.IsDaytime]
		data.Temperature = report.Temperature
		data.TemperatureUnit = report.TemperatureUnit
		data.SunriseTime = report.SunriseTime
		data.SunsetTime = report.SunsetTime
	}

	return data
}

// Render executes all status templates with the given context and returns
// the results keyed by template name.
func (p *Presenter) Render(data StatusData) (map[string]string, error) {
	templates := map[string]*template.Template{
		"text":     p.TextTemplate,
		"alt_text": p.AltTextTemplate,
		"tooltip":  p.TooltipTemplate,
	}

	out := make(map[string]string, len(templates))
	for name, tpl := range templates {
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s template: %w", name, err)
		}
		out[name] = buf.String()
	}

	return out, nil
}

func (p *Presenter) qualityIcon(snap track.Snapshot) string {
	if !snap.Tracking {
		return pausedIcon
	}
	return qualityIcons[snap.Quality]
}

// weatherCategory folds the WMO weather code groups into coarse categories
// for icon and text lookup. Unknown codes map to the empty category.
func weatherCategory(code int) string {
	switch {
	case code >= 0 && code <= 1:
		return "clear"
	case code >= 2 && code <= 3:
		return "cloudy"
	case code == 45 || code == 48:
		return "fog"
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "snow"
	case code >= 95 && code <= 99:
		return "thunderstorm"
	default:
		return ""
	}
}
