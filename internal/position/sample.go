// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package position implements the position-quality pipeline: a bounded history
// of location samples, an accuracy/recency-weighted averager and a stability
// detector. It turns noisy, intermittent location fixes into a smoothed,
// trustable position estimate.
package position

import (
	"time"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/vartype"
)

// Sample is a single enhanced position fix as delivered by a location provider.
// Accuracy is the 1-sigma radius in meters within which the true position is
// believed to lie. The kinematic fields are optional since not every provider
// reports them.
type Sample struct {
	Coordinate geo.Coordinate
	Accuracy   float64
	Taken      time.Time

	Altitude         vartype.VarFloat64
	AltitudeAccuracy vartype.VarFloat64
	Heading          vartype.VarFloat64
	Speed            vartype.VarFloat64
}

// Quality returns the quality tier of the sample's reported accuracy.
func (s Sample) Quality() geo.Quality {
	return geo.ClassifyAccuracy(s.Accuracy)
}

// Valid reports whether the sample could have come from a sane location
// provider: coordinates in range and a non-negative accuracy radius.
func (s Sample) Valid() bool {
	return s.Coordinate.Valid() && s.Accuracy >= 0 && !s.Taken.IsZero()
}
