// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package track implements the tracking controller. It owns the location watch
// lifecycle, runs every raw fix through the position-quality pipeline and
// exposes the derived state: trusted position, accuracy quality, stability and
// the set of active geofences.
package track

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/geofence"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/logger"
	"github.com/wneessen/parktrack/internal/position"
	"github.com/wneessen/parktrack/internal/vartype"
)

// DefaultPublishAccuracy is the default accuracy ceiling in meters a fix must
// satisfy before it may overwrite the published position. It is deliberately
// stricter than the history buffer's entry ceiling: a single noisy outlier
// neither enters the published state nor flushes the averaging window.
const DefaultPublishAccuracy = 10.0

// Config holds the tuning values of the tracking pipeline.
type Config struct {
	// WindowSize is the number of samples in the averaging window.
	WindowSize int
	// EntryAccuracy is the worst accuracy radius in meters a sample may report
	// and still enter the history buffer.
	EntryAccuracy float64
	// PublishAccuracy is the worst accuracy radius in meters the newest sample
	// may report while still being allowed to move the published position.
	PublishAccuracy float64
	// UpdateInterval is the expected fix delivery cadence.
	UpdateInterval time.Duration
	// StabilityWindow and StabilityThreshold parametrize the stability detector.
	StabilityWindow    time.Duration
	StabilityThreshold float64
	// RequireStability withholds position publishes until the position settles.
	RequireStability bool
	// Radius is the initial geofence evaluation radius in meters.
	Radius float64
}

// Snapshot is a consistent copy of the tracker's published state.
type Snapshot struct {
	SessionID       string
	Tracking        bool
	UserPosition    vartype.Variable[geo.Coordinate]
	Accuracy        vartype.VarFloat64
	Quality         geo.Quality
	Stable          bool
	ActiveGeofences []geofence.Entry
}

// VisitRecorder persists geofence enter/exit transitions. Implementations must
// tolerate being called once per transition on the watch goroutine.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, sessionID string, entry geofence.Entry, entered bool, at time.Time) error
}

// Tracker is the tracking controller. A Tracker owns its history buffer and
// published state exclusively; concurrent readers get copies. The zero value is
// not usable, use New.
type Tracker struct {
	logger    *logger.Logger
	conf      Config
	evaluator *geofence.Evaluator
	perm      locate.Permission
	watcher   *locate.Watcher
	recorder  VisitRecorder
	now       func() time.Time

	mu          sync.RWMutex
	tracking    bool
	sessionID   string
	cancelWatch context.CancelFunc
	watchDone   chan struct{}
	history     *position.History
	radius      float64

	userPosition vartype.Variable[geo.Coordinate]
	accuracy     vartype.VarFloat64
	quality      geo.Quality
	stable       bool
	active       []geofence.Entry

	subscribers map[chan Snapshot]struct{}
}

// New returns an idle Tracker using the given geofence evaluator, permission
// capability and location watcher.
func New(log *logger.Logger, conf Config, evaluator *geofence.Evaluator, perm locate.Permission,
	watcher *locate.Watcher,
) *Tracker {
	if conf.EntryAccuracy <= 0 {
		conf.EntryAccuracy = position.DefaultMaxAccuracy
	}
	if conf.PublishAccuracy <= 0 {
		conf.PublishAccuracy = DefaultPublishAccuracy
	}
	if conf.WindowSize <= 0 {
		conf.WindowSize = position.DefaultWindowSize
	}
	if conf.UpdateInterval <= 0 {
		conf.UpdateInterval = position.DefaultUpdateInterval
	}
	if conf.StabilityWindow <= 0 {
		conf.StabilityWindow = position.DefaultStabilityWindow
	}
	if conf.StabilityThreshold <= 0 {
		conf.StabilityThreshold = position.DefaultStabilityThreshold
	}
	if conf.Radius <= 0 {
		conf.Radius = geofence.DefaultRadius
	}
	return &Tracker{
		logger:      log,
		conf:        conf,
		evaluator:   evaluator,
		perm:        perm,
		watcher:     watcher,
		now:         time.Now,
		history:     position.NewHistory(conf.WindowSize, conf.EntryAccuracy, conf.UpdateInterval),
		radius:      conf.Radius,
		quality:     geo.QualityUnacceptable,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// SetRecorder installs a visit recorder for geofence enter/exit transitions.
// Must be called before Start.
func (t *Tracker) SetRecorder(r VisitRecorder) {
	t.recorder = r
}

// Start opens the location watch and transitions the tracker to tracking.
// Calling Start on a tracker that is already tracking is a success no-op. If
// the location permission is not granted, Start returns false without opening a
// watch; this is an expected, recoverable outcome, not an error.
func (t *Tracker) Start(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return true, nil
	}
	if !t.perm.Granted(ctx) {
		t.logger.Warn("location permission not granted, tracking not started")
		return false, nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	stream := t.watcher.Watch(watchCtx)

	t.tracking = true
	t.sessionID = uuid.NewString()
	t.cancelWatch = cancel
	t.watchDone = make(chan struct{})
	t.logger.Info("tracking started", slog.String("session", t.sessionID))

	go func(done chan struct{}) {
		defer close(done)
		for update := range stream {
			t.handleUpdate(watchCtx, update)
		}
	}(t.watchDone)

	return true, nil
}

// Stop tears down the location watch and clears all derived state: history,
// published position, accuracy, quality, stability and active geofences. Stop
// is idempotent and safe to call on an idle tracker.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.tracking {
		t.mu.Unlock()
		return
	}
	t.tracking = false
	cancel, done := t.cancelWatch, t.watchDone
	t.mu.Unlock()

	cancel()
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = ""
	t.cancelWatch = nil
	t.watchDone = nil
	t.history.Clear()
	t.userPosition.Reset()
	t.accuracy.Reset()
	t.quality = geo.QualityUnacceptable
	t.stable = false
	t.active = nil
	t.logger.Info("tracking stopped")
	t.broadcast()
}

// visit is a single geofence enter/exit transition pending persistence.
type visit struct {
	entry   geofence.Entry
	entered bool
}

// handleUpdate runs a single raw fix through the pipeline. Each fix is
// processed to completion before the next is handled; the watch channel
// serializes deliveries.
func (t *Tracker) handleUpdate(ctx context.Context, update locate.Update) {
	t.mu.Lock()
	// a cancelled watch may still drain buffered updates; they belong to a
	// session that no longer exists
	if !t.tracking || ctx.Err() != nil {
		t.mu.Unlock()
		return
	}

	sample := update.Sample
	now := t.now()

	// accuracy and quality reflect the raw fix, accepted or not
	t.accuracy.Set(sample.Accuracy)
	t.quality = sample.Quality()

	accepted := t.history.Accept(sample)
	if !accepted {
		t.logger.Debug("sample dropped at history boundary",
			slog.String("source", update.Source), slog.Float64("accuracy", sample.Accuracy))
	}
	t.stable = t.history.Stable(now, t.conf.StabilityWindow, t.conf.StabilityThreshold)

	var transitions []visit
	if accepted && sample.Accuracy <= t.conf.PublishAccuracy &&
		(!t.conf.RequireStability || t.stable) {
		if avg, ok := t.history.Average(now); ok {
			t.userPosition.Set(avg)
			transitions = t.evaluateGeofences()
		}
	}

	sessionID := t.sessionID
	t.mu.Unlock()

	// the store write happens off the lock so state getters never wait on I/O
	t.recordTransitions(ctx, sessionID, transitions, now)

	t.mu.Lock()
	t.broadcast()
	t.mu.Unlock()
}

// evaluateGeofences recomputes the active geofence set from the published
// position and returns the enter/exit transitions since the previous
// evaluation. Callers hold the lock.
func (t *Tracker) evaluateGeofences() []visit {
	previous := make(map[string]struct{}, len(t.active))
	for _, entry := range t.active {
		previous[entry.ID] = struct{}{}
	}

	t.active = t.evaluator.Evaluate(t.userPosition.Value(), t.radius)

	if t.recorder == nil {
		return nil
	}
	var transitions []visit
	for _, entry := range t.active {
		if _, ok := previous[entry.ID]; !ok {
			transitions = append(transitions, visit{entry: entry, entered: true})
		}
		delete(previous, entry.ID)
	}
	for id := range previous {
		exited := geofence.Entry{ID: id}
		if p, ok := t.evaluator.Point(id); ok {
			exited.Title = p.Title
			exited.Distance = geo.Distance(t.userPosition.Value(), p.Coordinate)
			exited.Properties = p.Properties
		}
		transitions = append(transitions, visit{entry: exited})
	}
	return transitions
}

// recordTransitions persists geofence transitions on the watch goroutine.
func (t *Tracker) recordTransitions(ctx context.Context, sessionID string, transitions []visit,
	at time.Time,
) {
	if t.recorder == nil {
		return
	}
	for _, v := range transitions {
		if err := t.recorder.RecordVisit(ctx, sessionID, v.entry, v.entered, at); err != nil {
			t.logger.Error("failed to record geofence transition",
				slog.Bool("entered", v.entered), logger.Err(err))
		}
	}
}
