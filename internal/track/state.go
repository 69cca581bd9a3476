// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package track

import (
	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/geofence"
)

// IsTracking reports whether a location watch is currently active.
func (t *Tracker) IsTracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// SessionID returns the ID of the current tracking session, or an empty string
// when idle.
func (t *Tracker) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// UserPosition returns the trusted smoothed position. The second return value
// is false as long as no position has passed the publish gate.
func (t *Tracker) UserPosition() (geo.Coordinate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userPosition.Value(), t.userPosition.IsSet()
}

// Accuracy returns the accuracy radius of the most recent raw fix. The second
// return value is false if no fix has been delivered yet.
func (t *Tracker) Accuracy() (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.accuracy.Value(), t.accuracy.IsSet()
}

// Quality returns the quality tier of the most recent raw fix.
func (t *Tracker) Quality() geo.Quality {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.quality
}

// IsStable reports whether the recent position samples have settled.
func (t *Tracker) IsStable() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stable
}

// ActiveGeofences returns a copy of the currently active geofence entries.
func (t *Tracker) ActiveGeofences() []geofence.Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := make([]geofence.Entry, len(t.active))
	copy(entries, t.active)
	return entries
}

// IsInsideGeofence reports whether the trusted position currently lies within
// the geofence of the given point of interest. Computed live from the published
// position, not from the cached active set.
func (t *Tracker) IsInsideGeofence(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.userPosition.IsSet() {
		return false
	}
	d, ok := t.evaluator.DistanceTo(t.userPosition.Value(), id)
	return ok && d <= t.radius
}

// DistanceTo returns the live distance in meters from the trusted position to
// the given point of interest. The second return value is false if there is no
// trusted position yet or the point does not exist.
func (t *Tracker) DistanceTo(id string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.userPosition.IsSet() {
		return 0, false
	}
	return t.evaluator.DistanceTo(t.userPosition.Value(), id)
}

// DistanceToPoint returns the live distance in meters from the most recent raw
// fix to the given point of interest, bypassing the averaging pipeline. The
// second return value is false if the history is empty or the point does not
// exist.
func (t *Tracker) DistanceToPoint(id string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	newest, ok := t.history.Newest()
	if !ok {
		return 0, false
	}
	return t.evaluator.DistanceTo(newest.Coordinate, id)
}

// Radius returns the current geofence evaluation radius in meters.
func (t *Tracker) Radius() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.radius
}

// SetRadius changes the geofence evaluation radius at runtime and, if a trusted
// position exists, immediately re-evaluates the active geofence set against it.
func (t *Tracker) SetRadius(radius float64) {
	if radius <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.radius = radius
	if t.userPosition.IsSet() {
		t.active = t.evaluator.Evaluate(t.userPosition.Value(), t.radius)
		t.broadcast()
	}
}

// Snapshot returns a consistent copy of the tracker's published state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

// Subscribe registers for state snapshots, delivered after every processed fix
// and state transition. It returns the snapshot channel and an unsubscribe
// function. Slow subscribers miss snapshots instead of blocking the pipeline.
func (t *Tracker) Subscribe(buffer int) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, buffer)
	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	unsub := func() {
		t.mu.Lock()
		delete(t.subscribers, ch)
		t.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// snapshotLocked builds a Snapshot. Callers hold at least the read lock.
func (t *Tracker) snapshotLocked() Snapshot {
	entries := make([]geofence.Entry, len(t.active))
	copy(entries, t.active)
	return Snapshot{
		SessionID:       t.sessionID,
		Tracking:        t.tracking,
		UserPosition:    t.userPosition,
		Accuracy:        t.accuracy,
		Quality:         t.quality,
		Stable:          t.stable,
		ActiveGeofences: entries,
	}
}

// broadcast delivers the current snapshot to all subscribers without blocking.
// Callers hold the write lock.
func (t *Tracker) broadcast() {
	snap := t.snapshotLocked()
	for ch := range t.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
