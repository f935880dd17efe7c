package submissiondomain

import (
	"math"
	"strings"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

const (
	// MaxRR is the soft cap on a single submission's run rate.
	MaxRR = 2.0
	// MinWorkoutRR is the effort threshold a workout must reach to be stored.
	MinWorkoutRR = 1.0
	// RestDayRR is the fixed run rate of a rest day.
	RestDayRR = 1.0
)

// EntryInput is the raw content of a submission before scoring.
type EntryInput struct {
	Kind     EntryKind
	Subtype  string
	Metrics  []WorkoutMetric
	ProofRef string
}

// Scored is a validated entry with its run rate.
type Scored struct {
	Kind    EntryKind
	Subtype string
	Metric  *WorkoutMetric
	RR      float64
}

// Score validates an entry against the catalog and computes its RR. Workouts
// below MinWorkoutRR are rejected here so they are never stored.
func Score(in EntryInput, catalog Catalog, requireProof bool) (Scored, error) {
	switch in.Kind {
	case KindRest:
		if len(in.Metrics) > 0 {
			return Scored{}, leagueerr.Validation("metrics", "rest days carry no workout metrics")
		}
		return Scored{Kind: KindRest, RR: RestDayRR}, nil
	case KindWorkout:
	default:
		return Scored{}, leagueerr.Validation("kind", "kind must be workout or rest, got %q", in.Kind)
	}

	subtype, ok := catalog.Lookup(in.Subtype)
	if !ok {
		return Scored{}, leagueerr.Validation("subtype", "unknown workout type %q; choose one of %s",
			in.Subtype, strings.Join(catalog.Names(), ", "))
	}
	if requireProof && strings.TrimSpace(in.ProofRef) == "" {
		return Scored{}, leagueerr.Validation("proof", "this league requires proof for every workout")
	}

	rr, metric, err := ComputeRR(subtype, in.Metrics)
	if err != nil {
		return Scored{}, err
	}
	if err := CheckEffort(subtype, metric, rr); err != nil {
		return Scored{}, err
	}
	return Scored{Kind: KindWorkout, Subtype: subtype.Name, Metric: &metric, RR: rr}, nil
}

// ComputeRR converts exactly one supplied metric into a run rate in
// [0, MaxRR], rounded to two decimals.
func ComputeRR(subtype Subtype, metrics []WorkoutMetric) (float64, WorkoutMetric, error) {
	switch len(metrics) {
	case 0:
		return 0, WorkoutMetric{}, leagueerr.Validation("metrics", "%s needs a %s value", subtype.Name, subtype.describeKinds())
	case 1:
	default:
		return 0, WorkoutMetric{}, leagueerr.Validation("metrics", "%s takes exactly one of %s, not both", subtype.Name, subtype.describeKinds())
	}

	m := metrics[0]
	measure, ok := subtype.Accepts(m.Kind)
	if !ok {
		return 0, WorkoutMetric{}, leagueerr.Validation("metrics", "%s is measured by %s, not %s", subtype.Name, subtype.describeKinds(), m.Kind)
	}
	if !m.finite() || m.Value < 0 {
		return 0, WorkoutMetric{}, leagueerr.Validation("metrics", "%s must be a non-negative number", m.Kind)
	}

	return rrFor(measure, m.Value), m, nil
}

func rrFor(measure Measure, value float64) float64 {
	if measure.Kind == MetricSteps && value < measure.Reference {
		return 0
	}
	return roundRR(math.Min(value/measure.Reference, MaxRR))
}

func roundRR(v float64) float64 {
	return math.Round(v*100) / 100
}

// CheckEffort rejects a workout whose RR is under the minimum, telling the
// member how much more of the metric they need.
func CheckEffort(subtype Subtype, metric WorkoutMetric, rr float64) error {
	if rr >= MinWorkoutRR {
		return nil
	}
	measure, _ := subtype.Accepts(metric.Kind)
	return leagueerr.Validation("metrics", "RR %.2f is below the %.1f minimum; increase %s to at least %g %s",
		rr, MinWorkoutRR, metric.Kind, measure.Reference*MinWorkoutRR, metric.Kind.Unit())
}
