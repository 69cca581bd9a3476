// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package locate

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/parktrack/internal/logger"
)

const (
	dbusListNamesAddress = "org.freedesktop.DBus.ListNames"
	geoclueAgentDBusName = "org.freedesktop.GeoClue2.DemoAgent"
)

// Permission is the location-permission capability. Tracking must not open a
// location watch unless Granted reports true.
type Permission interface {
	Granted(ctx context.Context) bool
}

// AgentPermission reports the location permission as granted when a GeoClue
// authorization agent is registered on the D-Bus session bus. The agent is the
// desktop's location-permission broker; without it no GeoClue client will ever
// be authorized.
type AgentPermission struct {
	logger *logger.Logger
}

// NewAgentPermission returns an AgentPermission using the given logger.
func NewAgentPermission(log *logger.Logger) *AgentPermission {
	return &AgentPermission{logger: log}
}

// Granted checks the session bus for a registered GeoClue agent.
func (p *AgentPermission) Granted(ctx context.Context) bool {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		p.logger.Warn("failed to connect to session bus", logger.Err(err))
		return false
	}
	defer func() {
		if err := conn.Close(); err != nil {
			p.logger.Error("failed to close session bus", logger.Err(err))
		}
	}()

	var list []string
	if err = conn.BusObject().Call(dbusListNamesAddress, 0).Store(&list); err != nil {
		p.logger.Warn("failed to call DBus ListNames", logger.Err(err))
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, geoclueAgentDBusName) {
			return true
		}
	}
	return false
}

// Static is a Permission with a fixed answer, for tests and for configurations
// that force-grant the location permission.
type Static bool

// Granted returns the fixed permission answer.
func (s Static) Granted(_ context.Context) bool {
	return bool(s)
}
