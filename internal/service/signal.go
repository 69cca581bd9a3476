// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// stdLibSignalSource is the production implementation.
type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals reacts to user signals: SIGUSR1 toggles between the primary
// and the alternative text output, SIGUSR2 logs the current tracking state.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				s.displayAltLock.Lock()
				s.displayAltText = !s.displayAltText
				s.displayAltLock.Unlock()
				s.printStatus(ctx)
			case syscall.SIGUSR2:
				s.logTrackingState()
			}
		}
	}
}

func (s *Service) logTrackingState() {
	if s.tracker == nil {
		s.logger.Info("tracker not initialized yet")
		return
	}
	snap := s.tracker.Snapshot()
	s.logger.Info("current tracking state", slog.String("session", snap.SessionID),
		slog.Bool("tracking", snap.Tracking), slog.String("quality", snap.Quality.String()),
		slog.Bool("stable", snap.Stable), slog.Bool("position_set", snap.UserPosition.IsSet()),
		slog.Int("active_geofences", len(snap.ActiveGeofences)))
}
