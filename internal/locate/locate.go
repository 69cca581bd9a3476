// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package locate abstracts the device location capability. Providers stream raw
// position fixes; the Watcher merges the streams of all configured providers
// into a single channel and keeps each provider alive with backoff.
package locate

import (
	"context"
	"sync"
	"time"

	"github.com/wneessen/parktrack/internal/logger"
	"github.com/wneessen/parktrack/internal/position"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Update is a single raw position fix together with the name of the provider
// that produced it.
type Update struct {
	Sample position.Sample
	Source string
}

// Provider defines an interface for device location sources. WatchStream opens
// a continuous watch and delivers fixes until the context is cancelled; the
// returned channel is closed when the watch ends.
type Provider interface {
	Name() string
	WatchStream(ctx context.Context) <-chan Update
}

// Watcher merges the update streams of multiple providers. A provider whose
// stream ends or whose WatchStream panics is restarted with exponential
// backoff, so a flaky location source never takes the watch down.
type Watcher struct {
	logger    *logger.Logger
	providers []Provider
}

// NewWatcher returns a Watcher over the given providers.
func NewWatcher(log *logger.Logger, providers []Provider) *Watcher {
	return &Watcher{
		logger:    log,
		providers: providers,
	}
}

// Watch starts all providers and returns a channel carrying their merged
// updates. The channel is closed after the context is cancelled and all
// provider goroutines have drained.
func (w *Watcher) Watch(ctx context.Context) <-chan Update {
	out := make(chan Update, 8)
	var wg sync.WaitGroup
	for _, p := range w.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			w.watchProvider(ctx, p, out)
		}(p)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// watchProvider continuously watches a single Provider, forwarding its updates
// and implementing backoff between restarts.
func (w *Watcher) watchProvider(ctx context.Context, p Provider, out chan<- Update) {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stream := w.safeWatch(ctx, p)
		if stream == nil {
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

	drain:
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-stream:
				if !ok {
					if !sleepOrDone(ctx, backoff) {
						return
					}
					backoff = nextBackoff(backoff)
					break drain
				}
				backoff = initialBackoff
				select {
				case <-ctx.Done():
					return
				case out <- u:
				}
			}
		}
	}
}

// safeWatch invokes WatchStream on a Provider and recovers from potential
// panics. Returns nil if the provider failed to open its watch.
func (w *Watcher) safeWatch(ctx context.Context, p Provider) (ch <-chan Update) {
	defer func() { _ = recover() }()
	return p.WatchStream(ctx)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}
