// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package position

import (
	"math"
	"time"

	"github.com/wneessen/parktrack/internal/geo"
)

const (
	// recencyDecay is the time constant of the exponential recency weight. A
	// sample ten seconds old contributes with weight 1/e.
	recencyDecay = 10 * time.Second

	// accuracyFloor keeps the accuracy weight finite for sub-meter accuracies.
	accuracyFloor = 1.0
)

// Average combines the history into a single smoothed coordinate. Each sample
// is weighted by three factors: the inverse of its accuracy radius (floored at
// one meter), an exponential decay of its age relative to now, and its relative
// insertion position. The positional factor emphasizes fresh samples on top of
// the recency decay; both are applied so the smoothing matches the tuned
// behavior of the tracking pipeline.
//
// Longitude and latitude are averaged independently. If the total weight
// degenerates to zero the newest sample's coordinate is returned as-is. The
// second return value is false only for an empty history.
func (h *History) Average(now time.Time) (geo.Coordinate, bool) {
	return Average(h.samples, now)
}

// Average is the history-independent form working on a plain sample slice,
// ordered oldest first.
func Average(samples []Sample, now time.Time) (geo.Coordinate, bool) {
	if len(samples) == 0 {
		return geo.Coordinate{}, false
	}
	newest := samples[len(samples)-1]
	if len(samples) == 1 {
		return newest.Coordinate, true
	}

	var sumLon, sumLat, sumWeight float64
	n := float64(len(samples))
	for i, s := range samples {
		accuracyWeight := 1 / math.Max(s.Accuracy, accuracyFloor)
		recencyWeight := math.Exp(-now.Sub(s.Taken).Seconds() / recencyDecay.Seconds())
		positionWeight := float64(i+1) / n

		weight := accuracyWeight * recencyWeight * positionWeight
		sumLon += s.Coordinate.Lon * weight
		sumLat += s.Coordinate.Lat * weight
		sumWeight += weight
	}

	if sumWeight == 0 {
		return newest.Coordinate, true
	}
	return geo.Coordinate{Lon: sumLon / sumWeight, Lat: sumLat / sumWeight}, true
}
