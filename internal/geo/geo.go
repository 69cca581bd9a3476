// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo provides the geographic primitives of the position pipeline:
// coordinates, great-circle distances and accuracy quality tiers.
package geo

import (
	"math"
)

const (
	// EarthRadius is the mean Earth radius in meters, as used by the Haversine formula.
	EarthRadius = 6371000.0

	// TruncPrecision is the number of decimal places coordinates are truncated to
	// before they are handed to consumers.
	TruncPrecision = 6
)

// Coordinate represents a geographic coordinate as a longitude/latitude pair in
// decimal degrees. Longitude always comes first; every function in this module
// sticks to that ordering.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceTo returns the great-circle distance in meters between the coordinate
// and other, using the Haversine formula.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return Distance(c, other)
}

// Distance calculates the great-circle distance in meters between two coordinates
// using the Haversine formula. It is symmetric and total: any valid pair of
// coordinates, including antipodal points, yields a finite result.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// Truncate cuts a float down to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
