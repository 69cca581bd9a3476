// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/parktrack/internal/geo"
)

const pausedIcon = "⏸️"

// qualityIcons maps the accuracy quality tiers to single status bar icons.
var qualityIcons = map[geo.Quality]string{
	geo.QualityExcellent:    "🎯",
	geo.QualityGood:         "📍",
	geo.QualityFair:         "📡",
	geo.QualityPoor:         "🛰️",
	geo.QualityUnacceptable: "❌",
}

// conditionIcons maps weather categories to icons for day (true) and
// night (false).
var conditionIcons = map[string]map[bool]string{
	"clear": {
		true:  "☀️",
		false: "🌙",
	},
	"cloudy": {
		true:  "⛅",
		false: "☁️",
	},
	"fog": {
		true:  "🌫️",
		false: "🌫️",
	},
	"rain": {
		true:  "🌧️",
		false: "🌧️",
	},
	"snow": {
		true:  "🌨️",
		false: "🌨️",
	},
	"thunderstorm": {
		true:  "⛈️",
		false: "⛈️",
	},
}

var i18nVars = map[string]localize.MsgID{
	"position quality": "Position quality",
	"stable":           "Stable",
	"sunrise":          "Sunrise",
	"sunset":           "Sunset",
	"updated":          "Updated",
	"no sights nearby": "No sights nearby",
	"clear":            "Clear",
	"cloudy":           "Cloudy",
	"fog":              "Fog",
	"rain":             "Rain",
	"snow":             "Snow",
	"thunderstorm":     "Thunderstorm",
}
