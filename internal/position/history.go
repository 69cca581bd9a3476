// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package position

import (
	"time"
)

const (
	// DefaultWindowSize is the default number of samples kept for averaging.
	DefaultWindowSize = 5

	// DefaultMaxAccuracy is the default hard accuracy ceiling in meters. Samples
	// reporting a worse (larger) accuracy radius never enter the history.
	DefaultMaxAccuracy = 50.0

	// DefaultUpdateInterval is the expected delivery cadence of location fixes.
	// Together with the window size it bounds the age of retained samples.
	DefaultUpdateInterval = 2 * time.Second
)

// History is a bounded, time-windowed sequence of recent position samples,
// ordered oldest first. It is bounded twice: by a maximum sample count and by a
// maximum sample age relative to the newest accepted sample. History is not
// safe for concurrent use; its owner serializes access.
type History struct {
	samples     []Sample
	windowSize  int
	maxAccuracy float64
	maxAge      time.Duration
}

// NewHistory returns an empty History with the given averaging window size,
// hard accuracy ceiling in meters and sample delivery interval. Non-positive
// arguments fall back to their defaults.
func NewHistory(windowSize int, maxAccuracy float64, updateInterval time.Duration) *History {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if maxAccuracy <= 0 {
		maxAccuracy = DefaultMaxAccuracy
	}
	if updateInterval <= 0 {
		updateInterval = DefaultUpdateInterval
	}
	return &History{
		samples:     make([]Sample, 0, windowSize),
		windowSize:  windowSize,
		maxAccuracy: maxAccuracy,
		maxAge:      updateInterval * time.Duration(windowSize),
	}
}

// Accept offers a sample to the history. Samples reporting an accuracy radius
// above the hard ceiling are dropped without touching the buffer, so downstream
// averaging keeps operating on the last known good data. On acceptance the
// buffer is trimmed from the front: first by age relative to the newest sample,
// then down to the window size. Returns true if the sample was accepted.
func (h *History) Accept(sample Sample) bool {
	if !sample.Valid() || sample.Accuracy > h.maxAccuracy {
		return false
	}

	h.samples = append(h.samples, sample)

	cutoff := sample.Taken.Add(-h.maxAge)
	trimmed := h.samples[:0]
	for _, s := range h.samples {
		if s.Taken.Before(cutoff) {
			continue
		}
		trimmed = append(trimmed, s)
	}
	h.samples = trimmed

	if len(h.samples) > h.windowSize {
		h.samples = h.samples[len(h.samples)-h.windowSize:]
	}
	return true
}

// Snapshot returns a read-only copy of the current history contents, oldest first.
func (h *History) Snapshot() []Sample {
	snap := make([]Sample, len(h.samples))
	copy(snap, h.samples)
	return snap
}

// Len returns the number of samples currently held.
func (h *History) Len() int {
	return len(h.samples)
}

// Newest returns the most recently accepted sample. The second return value is
// false if the history is empty.
func (h *History) Newest() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Clear drops all samples from the history.
func (h *History) Clear() {
	h.samples = h.samples[:0]
}
