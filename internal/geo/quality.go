// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

// Accuracy thresholds in meters for the quality tiers. Each tier covers the
// half-open interval up to and including its threshold.
const (
	AccuracyExcellent = 3.0
	AccuracyGood      = 8.0
	AccuracyFair      = 15.0
	AccuracyPoor      = 50.0
)

// Quality is a discrete classification of a reported accuracy radius into one of
// five ordered bands, from QualityExcellent down to QualityUnacceptable.
type Quality int

const (
	QualityExcellent Quality = iota
	QualityGood
	QualityFair
	QualityPoor
	QualityUnacceptable
)

// ClassifyAccuracy maps a raw accuracy radius in meters to its Quality tier.
// It is a pure function of the accuracy value. Negative accuracies cannot come
// from a sane location provider and classify as QualityUnacceptable.
func ClassifyAccuracy(accuracy float64) Quality {
	switch {
	case accuracy < 0:
		return QualityUnacceptable
	case accuracy <= AccuracyExcellent:
		return QualityExcellent
	case accuracy <= AccuracyGood:
		return QualityGood
	case accuracy <= AccuracyFair:
		return QualityFair
	case accuracy <= AccuracyPoor:
		return QualityPoor
	default:
		return QualityUnacceptable
	}
}

// String satisfies the fmt.Stringer interface for the Quality type.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent"
	case QualityGood:
		return "good"
	case QualityFair:
		return "fair"
	case QualityPoor:
		return "poor"
	case QualityUnacceptable:
		return "unacceptable"
	default:
		return "unknown"
	}
}
