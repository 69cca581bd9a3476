// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"strings"
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"
)

const (
	testLat = 52.5163
	testLon = 13.3777
)

func TestNew(t *testing.T) {
	provider := New("localhost", "2947")
	if provider == nil {
		t.Fatal("expected provider to be non-nil")
	}
	if !strings.EqualFold(provider.Name(), name) {
		t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
	}
}

func TestProvider_sampleFromTPV(t *testing.T) {
	provider := New("localhost", "2947")
	reportTime := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

	t.Run("reported position error is used as accuracy", func(t *testing.T) {
		sample := provider.sampleFromTPV(&gpsd.TPVReport{
			Mode: gpsd.Mode3D, Time: reportTime,
			Lat: testLat, Lon: testLon, Eph: 4.2,
			Alt: 52.3, Epv: 6.5, Track: 180.5, Speed: 1.4,
		})
		if sample.Coordinate.Lat != testLat {
			t.Errorf("expected latitude to be %f, got %f", testLat, sample.Coordinate.Lat)
		}
		if sample.Coordinate.Lon != testLon {
			t.Errorf("expected longitude to be %f, got %f", testLon, sample.Coordinate.Lon)
		}
		if sample.Accuracy != 4.2 {
			t.Errorf("expected accuracy to be %f, got %f", 4.2, sample.Accuracy)
		}
		if !sample.Taken.Equal(reportTime) {
			t.Errorf("expected sample time to be %s, got %s", reportTime, sample.Taken)
		}
		if !sample.Altitude.IsSet() || sample.Altitude.Value() != 52.3 {
			t.Errorf("expected altitude to be %f, got %s", 52.3, sample.Altitude.String())
		}
		if !sample.AltitudeAccuracy.IsSet() || sample.AltitudeAccuracy.Value() != 6.5 {
			t.Errorf("expected altitude accuracy to be %f, got %s", 6.5, sample.AltitudeAccuracy.String())
		}
		if !sample.Heading.IsSet() || sample.Heading.Value() != 180.5 {
			t.Errorf("expected heading to be %f, got %s", 180.5, sample.Heading.String())
		}
		if !sample.Speed.IsSet() || sample.Speed.Value() != 1.4 {
			t.Errorf("expected speed to be %f, got %s", 1.4, sample.Speed.String())
		}
	})
	t.Run("2D fix without position error falls back", func(t *testing.T) {
		sample := provider.sampleFromTPV(&gpsd.TPVReport{
			Mode: gpsd.Mode2D, Time: reportTime, Lat: testLat, Lon: testLon,
		})
		if sample.Accuracy != fallbackAccuracy2DFix {
			t.Errorf("expected accuracy to be %d, got %f", fallbackAccuracy2DFix, sample.Accuracy)
		}
		if sample.Altitude.IsSet() {
			t.Error("expected no altitude on a 2D fix")
		}
		if sample.Heading.IsSet() || sample.Speed.IsSet() {
			t.Error("expected no kinematic data on a stationary report")
		}
	})
	t.Run("3D fix without position error falls back", func(t *testing.T) {
		sample := provider.sampleFromTPV(&gpsd.TPVReport{
			Mode: gpsd.Mode3D, Time: reportTime, Lat: testLat, Lon: testLon, Alt: 52.3,
		})
		if sample.Accuracy != fallbackAccuracy3DFix {
			t.Errorf("expected accuracy to be %d, got %f", fallbackAccuracy3DFix, sample.Accuracy)
		}
		if !sample.Altitude.IsSet() {
			t.Error("expected altitude on a 3D fix")
		}
		if sample.AltitudeAccuracy.IsSet() {
			t.Error("expected no altitude accuracy without a reported EPV")
		}
	})
	t.Run("missing report time is substituted", func(t *testing.T) {
		sample := provider.sampleFromTPV(&gpsd.TPVReport{
			Mode: gpsd.Mode2D, Lat: testLat, Lon: testLon,
		})
		if sample.Taken.IsZero() {
			t.Error("expected sample time to be substituted for the missing report time")
		}
	})
}
