// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package ichnaea provides a location provider that geolocates the device from
// the WiFi access points in range, using an ichnaea-compatible geolocation API.
package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/http"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/position"
)

const (
	apiEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	wifiScanTime  = time.Minute * 2
	name          = "ichnaea"
)

type Provider struct {
	name     string
	http     *http.Client
	wlan     *wifi.Client
	period   time.Duration
	locateFn func(ctx context.Context) (position.Sample, error)

	apLock sync.RWMutex
	aps    []WirelessNetwork
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

// New returns an ichnaea-backed location provider using the given HTTP client.
func New(httpClient *http.Client) (*Provider, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}

	provider := &Provider{
		name:   name,
		http:   httpClient,
		wlan:   wlan,
		period: time.Minute * 5,
	}
	provider.locateFn = provider.locate
	return provider, nil
}

func (p *Provider) Name() string {
	return p.name
}

// WatchStream periodically geolocates the device from the visible WiFi access
// points and emits the resulting sample. The WiFi neighborhood is scanned on
// its own schedule in the background.
func (p *Provider) WatchStream(ctx context.Context) <-chan locate.Update {
	out := make(chan locate.Update)
	go p.monitorWifiAccessPoints(ctx)
	go func() {
		defer close(out)
		firstRun := true

		for {
			if !firstRun {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.period):
				}
			}
			firstRun = false

			sample, err := p.locateFn(ctx)
			if err != nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- locate.Update{Sample: sample, Source: p.name}:
			}
		}
	}()
	return out
}

func (p *Provider) monitorWifiAccessPoints(ctx context.Context) {
	firstRun := true
	for {
		if !firstRun {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wifiScanTime):
			}
		}
		firstRun = false

		list, err := p.wifiAccessPoints()
		if err != nil {
			continue
		}
		p.apLock.Lock()
		p.aps = list
		p.apLock.Unlock()
	}
}

func (p *Provider) wifiAccessPoints() ([]WirelessNetwork, error) {
	var checkIfaces []*wifi.Interface
	var list []WirelessNetwork

	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		checkIfaces = append(checkIfaces, iface)
	}
	if len(checkIfaces) == 0 {
		return nil, nil
	}

	for _, iface := range checkIfaces {
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}

	return list, nil
}

func (p *Provider) locate(ctx context.Context) (position.Sample, error) {
	var zero position.Sample
	p.apLock.RLock()
	wifiList := p.aps
	p.apLock.RUnlock()

	type request struct {
		ConsiderIP   bool              `json:"considerIp"`
		Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
	}
	req := request{
		ConsiderIP:   true,
		Accesspoints: wifiList,
	}
	bodyBuffer := bytes.NewBuffer(nil)
	if err := json.NewEncoder(bodyBuffer).Encode(req); err != nil {
		return zero, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	ctxHTTP, cancelHTTP := context.WithTimeout(ctx, lookupTimeout)
	defer cancelHTTP()
	result := new(APIResult)
	if _, err := p.http.PostJSON(ctxHTTP, apiEndpoint, result, bodyBuffer,
		map[string]string{"Content-Type": "application/json"}); err != nil {
		return zero, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	return position.Sample{
		Coordinate: geo.Coordinate{
			Lon: geo.Truncate(result.Location.Longitude, geo.TruncPrecision),
			Lat: geo.Truncate(result.Location.Latitude, geo.TruncPrecision),
		},
		Accuracy: result.Accuracy,
		Taken:    time.Now(),
	}, nil
}
