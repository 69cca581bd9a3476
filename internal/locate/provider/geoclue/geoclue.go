// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geoclue provides a location provider backed by the GeoClue2 system
// service, accessed over the D-Bus system bus.
package geoclue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/position"
	"github.com/wneessen/parktrack/internal/vartype"
)

const (
	name = "geoclue"

	geoclueService     = "org.freedesktop.GeoClue2"
	geoclueManagerPath = "/org/freedesktop/GeoClue2/Manager"
	managerInterface   = "org.freedesktop.GeoClue2.Manager"
	clientInterface    = "org.freedesktop.GeoClue2.Client"
	locationInterface  = "org.freedesktop.GeoClue2.Location"

	// AccuracyLevelExact requests the most precise location GeoClue can deliver.
	accuracyLevelExact = uint32(8)

	signalBufferSize = 8
	reconnectDelay   = 30 * time.Second
)

type Provider struct {
	name      string
	desktopID string
}

// New returns a GeoClue2-backed location provider registering with the given
// desktop ID. The ID must match what the GeoClue agent authorizes.
func New(desktopID string) *Provider {
	return &Provider{
		name:      name,
		desktopID: desktopID,
	}
}

func (p *Provider) Name() string {
	return p.name
}

// WatchStream starts a GeoClue client and streams a sample for every
// LocationUpdated signal. The client is stopped and the bus connection closed
// when the context ends; on bus failures the watch is re-established after a
// delay.
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

			if err := p.watchOnce(ctx, out); err != nil && ctx.Err() == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
					continue
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	return out
}

// watchOnce runs a single GeoClue client session until the bus connection dies
// or the context is cancelled.
func (p *Provider) watchOnce(ctx context.Context, out chan<- locate.Update) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	clientPath, err := p.createClient(conn)
	if err != nil {
		return err
	}
	client := conn.Object(geoclueService, clientPath)

	if err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(clientPath),
		dbus.WithMatchInterface(clientInterface),
		dbus.WithMatchMember("LocationUpdated"),
	); err != nil {
		return fmt.Errorf("failed to subscribe to LocationUpdated: %w", err)
	}

	sigCh := make(chan *dbus.Signal, signalBufferSize)
	conn.Signal(sigCh)
	defer conn.RemoveSignal(sigCh)

	if err = client.Call(clientInterface+".Start", 0).Err; err != nil {
		return fmt.Errorf("failed to start GeoClue client: %w", err)
	}
	defer func() { _ = client.Call(clientInterface+".Stop", 0).Err }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sgn, ok := <-sigCh:
			if !ok {
				return fmt.Errorf("system bus connection lost")
			}
			sample, err := p.sampleFromSignal(conn, sgn)
			if err != nil {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case out <- locate.Update{Sample: sample, Source: p.name}:
			}
		}
	}
}

// createClient obtains a client object from the GeoClue manager and configures
// its desktop ID and requested accuracy.
func (p *Provider) createClient(conn *dbus.Conn) (dbus.ObjectPath, error) {
	var clientPath dbus.ObjectPath
	manager := conn.Object(geoclueService, geoclueManagerPath)
	if err := manager.Call(managerInterface+".GetClient", 0).Store(&clientPath); err != nil {
		return "", fmt.Errorf("failed to get GeoClue client: %w", err)
	}

	client := conn.Object(geoclueService, clientPath)
	if err := client.SetProperty(clientInterface+".DesktopId",
		dbus.MakeVariant(p.desktopID)); err != nil {
		return "", fmt.Errorf("failed to set GeoClue desktop ID: %w", err)
	}
	if err := client.SetProperty(clientInterface+".RequestedAccuracyLevel",
		dbus.MakeVariant(accuracyLevelExact)); err != nil {
		return "", fmt.Errorf("failed to set GeoClue accuracy level: %w", err)
	}
	return clientPath, nil
}

// sampleFromSignal resolves the new location object of a LocationUpdated signal
// and reads its properties into a position sample.
func (p *Provider) sampleFromSignal(conn *dbus.Conn, sgn *dbus.Signal) (position.Sample, error) {
	var zero position.Sample
	if len(sgn.Body) != 2 {
		return zero, fmt.Errorf("unexpected LocationUpdated signal body")
	}
	locPath, ok := sgn.Body[1].(dbus.ObjectPath)
	if !ok {
		return zero, fmt.Errorf("unexpected LocationUpdated signal payload")
	}

	location := conn.Object(geoclueService, locPath)
	lat, err := locationFloat(location, "Latitude")
	if err != nil {
		return zero, err
	}
	lon, err := locationFloat(location, "Longitude")
	if err != nil {
		return zero, err
	}
	accuracy, err := locationFloat(location, "Accuracy")
	if err != nil {
		return zero, err
	}

	sample := position.Sample{
		Coordinate: geo.Coordinate{
			Lon: geo.Truncate(lon, geo.TruncPrecision),
			Lat: geo.Truncate(lat, geo.TruncPrecision),
		},
		Accuracy: accuracy,
		Taken:    time.Now(),
	}
	// GeoClue reports -MaxFloat64 for an unknown altitude and -1 for unknown
	// heading or speed
	if alt, err := locationFloat(location, "Altitude"); err == nil && alt != -math.MaxFloat64 {
		sample.Altitude = vartype.NewVariable(alt)
	}
	if heading, err := locationFloat(location, "Heading"); err == nil && heading >= 0 {
		sample.Heading = vartype.NewVariable(heading)
	}
	if speed, err := locationFloat(location, "Speed"); err == nil && speed >= 0 {
		sample.Speed = vartype.NewVariable(speed)
	}
	return sample, nil
}

func locationFloat(obj dbus.BusObject, property string) (float64, error) {
	variant, err := obj.GetProperty(locationInterface + "." + property)
	if err != nil {
		return 0, fmt.Errorf("failed to read location property %s: %w", property, err)
	}
	value, ok := variant.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("location property %s is not a float", property)
	}
	return value, nil
}
