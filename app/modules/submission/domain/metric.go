package submissiondomain

import (
	"fmt"
	"math"
)

// MetricKind names the measurement a workout metric carries.
type MetricKind string

const (
	MetricDuration MetricKind = "duration" // minutes
	MetricDistance MetricKind = "distance" // kilometres
	MetricSteps    MetricKind = "steps"
	MetricHoles    MetricKind = "holes"
)

// Valid reports whether k is one of the known metric kinds.
func (k MetricKind) Valid() bool {
	switch k {
	case MetricDuration, MetricDistance, MetricSteps, MetricHoles:
		return true
	}
	return false
}

// Unit is the display unit used in rejection reasons.
func (k MetricKind) Unit() string {
	switch k {
	case MetricDuration:
		return "min"
	case MetricDistance:
		return "km"
	case MetricSteps:
		return "steps"
	case MetricHoles:
		return "holes"
	}
	return ""
}

// WorkoutMetric is a tagged measurement. Exactly one kind is set per value;
// build one with Duration, Distance, Steps or Holes.
type WorkoutMetric struct {
	Kind  MetricKind `json:"kind"`
	Value float64    `json:"value"`
}

func Duration(minutes float64) WorkoutMetric {
	return WorkoutMetric{Kind: MetricDuration, Value: minutes}
}

func Distance(km float64) WorkoutMetric {
	return WorkoutMetric{Kind: MetricDistance, Value: km}
}

func Steps(n int) WorkoutMetric {
	return WorkoutMetric{Kind: MetricSteps, Value: float64(n)}
}

func Holes(n int) WorkoutMetric {
	return WorkoutMetric{Kind: MetricHoles, Value: float64(n)}
}

func (m WorkoutMetric) String() string {
	return fmt.Sprintf("%g %s", m.Value, m.Kind.Unit())
}

func (m WorkoutMetric) finite() bool {
	return !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0)
}
