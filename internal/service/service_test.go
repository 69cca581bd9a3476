// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/parktrack/internal/config"
	"github.com/wneessen/parktrack/internal/geofence"
	"github.com/wneessen/parktrack/internal/i18n"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/logger"
	"github.com/wneessen/parktrack/internal/track"
)

func TestNew(t *testing.T) {
	t.Run("new service succeeds", func(t *testing.T) {
		_, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
	})
	t.Run("invalid template configuration should fail", func(t *testing.T) {
		t.Setenv("PARKTRACK_TEMPLATES_TEXT", "{{")
		_, err := testService(t, false)
		if err == nil {
			t.Fatal("expected service creation to fail")
		}
		wantErr := "failed to parse"
		if !strings.Contains(err.Error(), wantErr) {
			t.Errorf("expected error to contain %q, got %q", wantErr, err)
		}
	})
	t.Run("nil logger fails the service initialization", func(t *testing.T) {
		_, err := testService(t, true)
		if err == nil {
			t.Fatal("expected service creation to fail")
		}
		wantErr := "logger is required"
		if !strings.Contains(err.Error(), wantErr) {
			t.Errorf("expected error to contain %q, got %q", wantErr, err)
		}
	})
}

func TestService_Run(t *testing.T) {
	t.Run("start the service and gracefully shut it down", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			afterFuncCalled := false
			context.AfterFunc(ctx, func() {
				afterFuncCalled = true
			})

			serv, err := testService(t, false)
			if err != nil {
				t.Fatalf("failed to create service: %s", err)
			}
			serv.output = io.Discard

			runErr := make(chan error, 1)
			go func() {
				runErr <- serv.Run(ctx)
			}()

			// Let the service reach its steady state before shutting it down.
			synctest.Wait()
			cancel()
			synctest.Wait()
			if !afterFuncCalled {
				t.Fatalf("before context is canceled: AfterFunc not called")
			}
			if err = <-runErr; err != nil {
				t.Errorf("failed to run service: %s", err)
			}
		})
	})
	t.Run("starting service fails without location providers", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			serv, err := testService(t, false)
			if err != nil {
				t.Fatalf("failed to create service: %s", err)
			}
			serv.config.Location.DisableGPSD = true
			serv.config.Location.DisableGeoClue = true
			serv.config.Location.DisableICHNAEA = true
			err = serv.Run(t.Context())
			if err == nil {
				t.Fatal("expected service to fail")
			}
			wantErr := `failed to create location watcher: no location providers enabled`
			if !strings.Contains(err.Error(), wantErr) {
				t.Errorf("expected error to contain %q, got %q", wantErr, err)
			}
		})
	})
}

func TestService_printStatus(t *testing.T) {
	t.Run("print status to a buffer", func(t *testing.T) {
		t.Setenv("PARKTRACK_TEMPLATES_TEXT", "text")
		t.Setenv("PARKTRACK_TEMPLATES_TOOLTIP", "tooltip")

		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		serv.output = buf
		serv.tracker = testTracker(serv)

		serv.printStatus(t.Context())

		var output outputData
		if err = json.Unmarshal(buf.Bytes(), &output); err != nil {
			t.Fatalf("failed to unmarshal JSON: %s", err)
		}
		if output.Text != "text" {
			t.Errorf("expected Text to be %q, got %q", "text", output.Text)
		}
		if output.Tooltip != "tooltip" {
			t.Errorf("expected Tooltip to be %q, got %q", "tooltip", output.Tooltip)
		}
		wantClasses := 2
		if len(output.Classes) != wantClasses {
			t.Fatalf("expected Classes to have length %d, got %d", wantClasses, len(output.Classes))
		}
		if output.Classes[0] != OutputClass {
			t.Errorf("expected first class to be %q, got %q", OutputClass, output.Classes[0])
		}
		if output.Classes[1] != "paused" {
			t.Errorf("expected 2nd class to be %q, got %q", "paused", output.Classes[1])
		}
	})
	t.Run("print alt_text to a buffer", func(t *testing.T) {
		t.Setenv("PARKTRACK_TEMPLATES_ALT_TEXT", "alt_text")

		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		serv.output = buf
		serv.tracker = testTracker(serv)
		serv.displayAltText = true

		serv.printStatus(t.Context())

		var output outputData
		if err = json.Unmarshal(buf.Bytes(), &output); err != nil {
			t.Fatalf("failed to unmarshal JSON: %s", err)
		}
		if output.Text != "alt_text" {
			t.Errorf("expected Text to be %q, got %q", "alt_text", output.Text)
		}
	})
	t.Run("print status returns when tracker is not initialized", func(t *testing.T) {
		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		serv.output = buf
		serv.printStatus(t.Context())
		if buf.Len() != 0 {
			t.Errorf("expected output buffer to be empty, got %q", buf.String())
		}
	})
	t.Run("output is empty on failing writer", func(t *testing.T) {
		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		serv.output = &failWriter{}
		serv.tracker = testTracker(serv)
		serv.printStatus(t.Context())
	})
}

func TestService_updateConditions(t *testing.T) {
	t.Run("skips without a trusted position", func(t *testing.T) {
		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		buf := &syncBuffer{buf: bytes.NewBuffer(nil)}
		serv.logger = logger.NewLogger(slog.LevelError, buf)
		serv.tracker = testTracker(serv)

		serv.updateConditions(t.Context())
		if buf.String() != "" {
			t.Errorf("expected no error output, got %q", buf.String())
		}
		if _, ok := serv.conditions.Report(); ok {
			t.Error("expected no conditions report without a trusted position")
		}
	})
}

func TestService_HandleSignals(t *testing.T) {
	t.Run("USR1 signal is handled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		serv.output = io.Discard
		serv.tracker = testTracker(serv)
		sigChan := make(chan os.Signal, 1)
		serv.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
		go func() {
			defer serv.SignalSrc.Stop(sigChan)
			serv.HandleSignals(ctx, sigChan)
		}()

		sigChan <- syscall.SIGUSR1
		time.Sleep(time.Millisecond * 100)
		serv.displayAltLock.RLock()
		defer serv.displayAltLock.RUnlock()
		if !serv.displayAltText {
			t.Errorf("expected alt mode to be enabled, got %t", serv.displayAltText)
		}
		cancel()
	})
	t.Run("USR2 signal is handled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		buf := &syncBuffer{buf: bytes.NewBuffer(nil)}
		serv.logger = logger.NewLogger(slog.LevelInfo, buf)
		serv.tracker = testTracker(serv)
		sigChan := make(chan os.Signal, 1)
		serv.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
		go func() {
			defer serv.SignalSrc.Stop(sigChan)
			serv.HandleSignals(ctx, sigChan)
		}()

		sigChan <- syscall.SIGUSR2
		time.Sleep(time.Millisecond * 100)
		wantLog := `msg="current tracking state" session="" tracking=false`
		if !strings.Contains(buf.String(), wantLog) {
			t.Errorf("expected log to contain %q, got %q", wantLog, buf.String())
		}
		cancel()
		time.Sleep(time.Millisecond * 100)
	})
}

func TestService_selectLocationProviders(t *testing.T) {
	tests := []struct {
		name       string
		confFn     func(*config.Config)
		wantMin    int
		wantMax    int
		shouldFail bool
	}{
		{
			// the ICHNAEA provider requires WiFi hardware and is skipped
			// on hosts without it
			name:    "all providers enabled",
			confFn:  func(*config.Config) {},
			wantMin: 2,
			wantMax: 3,
		},
		{
			name: "only gpsd",
			confFn: func(c *config.Config) {
				c.Location.DisableGeoClue = true
				c.Location.DisableICHNAEA = true
			},
			wantMin: 1,
			wantMax: 1,
		},
		{
			name: "only geoclue",
			confFn: func(c *config.Config) {
				c.Location.DisableGPSD = true
				c.Location.DisableICHNAEA = true
			},
			wantMin: 1,
			wantMax: 1,
		},
		{
			name: "no provider fails",
			confFn: func(c *config.Config) {
				c.Location.DisableGPSD = true
				c.Location.DisableGeoClue = true
				c.Location.DisableICHNAEA = true
			},
			shouldFail: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			serv, err := testService(t, false)
			if err != nil {
				t.Fatalf("failed to create service: %s", err)
			}
			tc.confFn(serv.config)

			providers, err := serv.selectLocationProviders()
			if !tc.shouldFail && err != nil {
				t.Fatalf("failed to select providers: %s", err)
			}
			if tc.shouldFail {
				if err == nil {
					t.Fatal("expected provider selection to fail")
				}
				return
			}
			if len(providers) < tc.wantMin || len(providers) > tc.wantMax {
				t.Errorf("expected between %d and %d providers, got %d", tc.wantMin, tc.wantMax,
					len(providers))
			}
		})
	}
}

func TestService_selectPermission(t *testing.T) {
	t.Run("force grant uses the static permission", func(t *testing.T) {
		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		serv.config.Location.ForceGrant = true
		perm := serv.selectPermission()
		if !perm.Granted(t.Context()) {
			t.Error("expected forced permission to be granted")
		}
	})
	t.Run("default uses the agent permission", func(t *testing.T) {
		serv, err := testService(t, false)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if _, ok := serv.selectPermission().(*locate.AgentPermission); !ok {
			t.Error("expected the agent permission to be selected")
		}
	})
}

func testService(t *testing.T, nilLogger bool) (*Service, error) {
	t.Helper()
	t.Setenv("PARKTRACK_DATABASE_PATH", filepath.Join(t.TempDir(), "parktrack.db"))

	conf, err := config.New()
	if err != nil {
		return nil, err
	}

	var log *logger.Logger
	if !nilLogger {
		log = logger.NewLogger(conf.LogLevel, io.Discard)
	}

	lang, hum, err := i18n.New(conf.Locale)
	if err != nil {
		return nil, err
	}

	return New(conf, log, lang, hum)
}

// testTracker builds an idle tracker with an empty catalog and no providers.
func testTracker(serv *Service) *track.Tracker {
	return track.New(serv.logger, serv.trackConfig(), geofence.NewEvaluator(nil),
		locate.Static(true), locate.NewWatcher(serv.logger, nil))
}

type (
	failWriter struct{}
	syncBuffer struct {
		mu  sync.Mutex
		buf *bytes.Buffer
	}
)

func (f failWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("failed to write") }

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
