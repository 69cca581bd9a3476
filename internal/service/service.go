// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service wires the tracking pipeline, the point-of-interest store,
// the conditions monitor and the status output into a long-running daemon.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"

	"github.com/wneessen/parktrack/internal/conditions"
	"github.com/wneessen/parktrack/internal/config"
	"github.com/wneessen/parktrack/internal/geofence"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/logger"
	"github.com/wneessen/parktrack/internal/poi"
	"github.com/wneessen/parktrack/internal/presenter"
	"github.com/wneessen/parktrack/internal/track"
)

const (
	OutputClass = "parktrack"
	DesktopID   = "parktrack"
)

type outputData struct {
	Text    string   `json:"text"`
	Tooltip string   `json:"tooltip"`
	Classes []string `json:"class"`
}

type Service struct {
	config     *config.Config
	logger     *logger.Logger
	scheduler  gocron.Scheduler
	presenter  *presenter.Presenter
	conditions *conditions.Monitor
	store      *poi.Store
	tracker    *track.Tracker
	output     io.Writer
	SignalSrc  signalSource

	displayAltLock sync.RWMutex
	displayAltText bool
}

func New(conf *config.Config, log *logger.Logger, lang *spreak.Localizer,
	hum *humanize.Humanizer,
) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	pres, err := presenter.New(conf, lang, hum)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	monitor, err := conditions.NewMonitor(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create conditions monitor: %w", err)
	}

	store, err := poi.Open(conf.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point-of-interest store: %w", err)
	}

	service := &Service{
		config:     conf,
		logger:     log,
		scheduler:  scheduler,
		presenter:  pres,
		conditions: monitor,
		store:      store,
		output:     os.Stdout,
		SignalSrc:  stdLibSignalSource{},
	}
	return service, nil
}

// Run drives the daemon until the context is cancelled. The scheduler and
// the store are released on every exit path, error or not.
func (s *Service) Run(ctx context.Context) error {
	return errors.Join(s.run(ctx), s.scheduler.Shutdown(), s.store.Close())
}

func (s *Service) run(ctx context.Context) error {
	points, err := s.store.Points(ctx)
	if err != nil {
		return fmt.Errorf("failed to load point-of-interest catalog: %w", err)
	}
	s.logger.Info("loaded point-of-interest catalog", slog.Int("points", len(points)))

	providers, err := s.selectLocationProviders()
	if err != nil {
		return fmt.Errorf("failed to create location watcher: %w", err)
	}

	s.tracker = track.New(s.logger, s.trackConfig(), geofence.NewEvaluator(points),
		s.selectPermission(), locate.NewWatcher(s.logger, providers))
	s.tracker.SetRecorder(s.store)

	// Start scheduled jobs
	if err = s.createScheduledJob(ctx, s.config.Intervals.Output, s.printStatus,
		"status_output_job"); err != nil {
		return err
	}
	if err = s.createScheduledJob(ctx, s.config.Intervals.ConditionsUpdate, s.updateConditions,
		"conditions_update_job"); err != nil {
		return err
	}
	s.scheduler.Start()

	started, err := s.tracker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start tracking: %w", err)
	}
	if !started {
		s.logger.Warn("tracking not started, waiting for location permission")
	}

	sub, unsub := s.tracker.Subscribe(32)
	go s.processSnapshots(ctx, sub)
	go s.monitorSleepResume(ctx)

	// Wait for the context to cancel
	<-ctx.Done()
	s.tracker.Stop()
	if unsub != nil {
		unsub()
	}
	return nil
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

func (s *Service) trackConfig() track.Config {
	return track.Config{
		WindowSize:         s.config.Tracking.WindowSize,
		EntryAccuracy:      s.config.Tracking.EntryAccuracy,
		PublishAccuracy:    s.config.Tracking.PublishAccuracy,
		UpdateInterval:     s.config.Tracking.UpdateInterval,
		StabilityWindow:    s.config.Tracking.StabilityWindow,
		StabilityThreshold: s.config.Tracking.StabilityThreshold,
		RequireStability:   s.config.Tracking.RequireStability,
		Radius:             s.config.Geofence.Radius,
	}
}

// printStatus renders the current tracking snapshot and writes it as a single
// JSON line to the output.
func (s *Service) printStatus(context.Context) {
	if s.tracker == nil {
		return
	}
	snap := s.tracker.Snapshot()

	var report *conditions.Report
	if r, ok := s.conditions.Report(); ok {
		report = &r
	}

	outMap, err := s.presenter.Render(s.presenter.BuildContext(snap, report, time.Now()))
	if err != nil {
		s.logger.Error("failed to render status output", logger.Err(err))
		return
	}

	s.displayAltLock.RLock()
	text := outMap["text"]
	if s.displayAltText {
		text = outMap["alt_text"]
	}
	s.displayAltLock.RUnlock()

	output := outputData{
		Text:    text,
		Tooltip: outMap["tooltip"],
		Classes: outputClasses(snap),
	}
	if err = json.NewEncoder(s.output).Encode(output); err != nil {
		s.logger.Error("failed to encode status output", logger.Err(err))
	}
}

// updateConditions refreshes the weather and daylight report for the trusted
// position. Without a trusted position there is nothing to look up.
func (s *Service) updateConditions(ctx context.Context) {
	if s.tracker == nil {
		return
	}
	coord, ok := s.tracker.UserPosition()
	if !ok {
		s.logger.Debug("no trusted position yet, skipping conditions update")
		return
	}
	if err := s.conditions.Update(ctx, coord); err != nil {
		s.logger.Error("failed to update conditions", logger.Err(err))
	}
}

// processSnapshots re-renders the status output whenever the tracker publishes
// a new snapshot.
func (s *Service) processSnapshots(ctx context.Context, sub <-chan track.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub:
			if !ok {
				return
			}
			s.logger.Debug("received tracking snapshot",
				slog.String("quality", snap.Quality.String()), slog.Bool("stable", snap.Stable),
				slog.Int("active_geofences", len(snap.ActiveGeofences)))
			s.printStatus(ctx)
		}
	}
}

func outputClasses(snap track.Snapshot) []string {
	if !snap.Tracking {
		return []string{OutputClass, "paused"}
	}
	return []string{OutputClass, strings.ToLower(snap.Quality.String())}
}
