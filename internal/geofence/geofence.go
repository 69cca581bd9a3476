// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geofence evaluates a position against the circular geofences around
// the park's points of interest.
package geofence

import (
	"github.com/wneessen/parktrack/internal/geo"
)

// DefaultRadius is the default geofence radius in meters.
const DefaultRadius = 25.0

// PointOfInterest is a single park location with a geofence around it.
type PointOfInterest struct {
	ID         string
	Title      string
	Coordinate geo.Coordinate
	Properties map[string]string
}

// Entry is the instantaneous result of evaluating one point of interest against
// a position: the point, its computed distance in meters and whether the
// position lies inside the active radius. Entries are value objects recreated
// wholesale on every evaluation.
type Entry struct {
	ID         string
	Title      string
	Distance   float64
	IsActive   bool
	Properties map[string]string
}

// Evaluator computes the set of active geofences for a position. It holds the
// point-of-interest list but no evaluation state; every call is a full,
// side-effect-free recompute.
type Evaluator struct {
	points []PointOfInterest
}

// NewEvaluator returns an Evaluator over the given points of interest.
func NewEvaluator(points []PointOfInterest) *Evaluator {
	return &Evaluator{points: points}
}

// Points returns the evaluator's point-of-interest list.
func (e *Evaluator) Points() []PointOfInterest {
	return e.points
}

// Point returns the point of interest with the given ID.
func (e *Evaluator) Point(id string) (PointOfInterest, bool) {
	for _, p := range e.points {
		if p.ID == id {
			return p, true
		}
	}
	return PointOfInterest{}, false
}

// Evaluate returns the subset of points whose distance to the given position is
// within the radius, in input order, each annotated with its computed distance.
// An empty result is the normal outcome of standing inside no geofence.
func (e *Evaluator) Evaluate(pos geo.Coordinate, radius float64) []Entry {
	var active []Entry
	for _, p := range e.points {
		distance := geo.Distance(pos, p.Coordinate)
		if distance > radius {
			continue
		}
		active = append(active, Entry{
			ID:         p.ID,
			Title:      p.Title,
			Distance:   distance,
			IsActive:   true,
			Properties: p.Properties,
		})
	}
	return active
}

// DistanceTo returns the distance in meters from the given position to the
// point of interest with the given ID. The second return value is false if no
// such point exists.
func (e *Evaluator) DistanceTo(pos geo.Coordinate, id string) (float64, bool) {
	p, ok := e.Point(id)
	if !ok {
		return 0, false
	}
	return geo.Distance(pos, p.Coordinate), true
}
