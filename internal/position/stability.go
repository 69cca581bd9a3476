// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package position

import (
	"time"

	"github.com/wneessen/parktrack/internal/geo"
)

const (
	// DefaultStabilityWindow is the default time window stability is judged over.
	DefaultStabilityWindow = 5 * time.Second

	// DefaultStabilityThreshold is the default maximum drift in meters between
	// samples that still counts as settled.
	DefaultStabilityThreshold = 3.0
)

// Stable reports whether the recent samples have stopped drifting. Only samples
// taken within the given window before now are considered; fewer than two such
// samples means there is not enough evidence and the position counts as
// unstable. Otherwise the oldest in-window sample serves as the reference and
// every other one must lie within threshold meters of it.
func (h *History) Stable(now time.Time, window time.Duration, threshold float64) bool {
	return Stable(h.samples, now, window, threshold)
}

// Stable is the history-independent form working on a plain sample slice,
// ordered oldest first.
func Stable(samples []Sample, now time.Time, window time.Duration, threshold float64) bool {
	cutoff := now.Add(-window)
	var recent []Sample
	for _, s := range samples {
		if s.Taken.Before(cutoff) {
			continue
		}
		recent = append(recent, s)
	}
	if len(recent) < 2 {
		return false
	}

	reference := recent[0].Coordinate
	for _, s := range recent[1:] {
		if geo.Distance(reference, s.Coordinate) > threshold {
			return false
		}
	}
	return true
}
