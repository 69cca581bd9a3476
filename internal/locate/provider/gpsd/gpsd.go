// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpsd provides a location provider streaming fixes from a local gpsd
// instance.
package gpsd

import (
	"context"
	"net"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/position"
	"github.com/wneessen/parktrack/internal/vartype"
)

const (
	name = "gpsd"

	// fallback accuracy estimates for receivers that do not report EPH
	fallbackAccuracy3DFix = 10 // ~10m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25
)

type Provider struct {
	name      string
	host      string
	port      string
	reconnect time.Duration
}

// New returns a gpsd-backed location provider connecting to the given host and
// port.
func New(host, port string) *Provider {
	return &Provider{
		name:      name,
		host:      host,
		port:      port,
		reconnect: time.Second * 30,
	}
}

func (p *Provider) Name() string {
	return p.name
}

// WatchStream connects to gpsd and streams every TPV report with at least a 2D
// fix. The connection is re-established after the reconnect period whenever
// the gpsd watch ends.
func (p *Provider) WatchStream(ctx context.Context) <-chan locate.Update {
	out := make(chan locate.Update)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			addr := net.JoinHostPort(p.host, p.port)
			session, err := gpsd.Dial(addr)
			if err != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.reconnect):
					continue
				}
			}

			session.AddFilter("TPV", func(r interface{}) {
				tpv, ok := r.(*gpsd.TPVReport)
				if !ok {
					return
				}
				if tpv.Mode < gpsd.Mode2D {
					return
				}

				select {
				case <-ctx.Done():
				case out <- locate.Update{Sample: p.sampleFromTPV(tpv), Source: p.name}:
				}
			})

			done := session.Watch()
			select {
			case <-ctx.Done():
				// go-gpsd has no Close(); the process teardown releases the
				// connection.
				return
			case <-done:
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(p.reconnect):
			}
		}
	}()

	return out
}

// sampleFromTPV converts a gpsd TPV report into a position sample. If the
// receiver does not report a horizontal position error, a conservative
// fix-mode estimate substitutes for it.
func (p *Provider) sampleFromTPV(tpv *gpsd.TPVReport) position.Sample {
	accuracy := tpv.Eph
	if accuracy <= 0 {
		accuracy = fallbackAccuracy2DFix
		if tpv.Mode >= gpsd.Mode3D {
			accuracy = fallbackAccuracy3DFix
		}
	}

	taken := tpv.Time
	if taken.IsZero() {
		taken = time.Now()
	}

	sample := position.Sample{
		Coordinate: geo.Coordinate{
			Lon: geo.Truncate(tpv.Lon, geo.TruncPrecision),
			Lat: geo.Truncate(tpv.Lat, geo.TruncPrecision),
		},
		Accuracy: accuracy,
		Taken:    taken,
	}
	if tpv.Mode >= gpsd.Mode3D {
		sample.Altitude = vartype.NewVariable(tpv.Alt)
		if tpv.Epv > 0 {
			sample.AltitudeAccuracy = vartype.NewVariable(tpv.Epv)
		}
	}
	if tpv.Track != 0 {
		sample.Heading = vartype.NewVariable(tpv.Track)
	}
	if tpv.Speed != 0 {
		sample.Speed = vartype.NewVariable(tpv.Speed)
	}
	return sample
}
