// internal/campaign/stats.go
package campaign

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Reference acceptance thresholds. The engine reports values; callers
// decide pass/fail. Downstream certification gates depend on these
// defaults verbatim.
const (
	DefaultMeanFidelityGate    = 0.97
	DefaultStandardErrorGate   = 0.005
	DefaultConvergenceRateGate = 0.98
	DefaultNominalReference    = 0.97
)

// outlierSigmas is the flagging envelope: beyond 3σ from the campaign mean.
const outlierSigmas = 3.0

// Statistics is a pure function of the result set it was computed from.
// It is always recomputed from scratch, never patched incrementally.
type Statistics struct {
	Count                int
	MeanFidelity         float64
	StandardError        float64
	ConvergenceRate      float64
	EnvelopeMaxDeviation float64
	Failures             int
	Outliers             int
}

// Compute derives campaign statistics over results. nominal is the
// caller-supplied expected fidelity for the deviation envelope; a
// non-positive nominal disables the envelope.
func Compute(results []Result, nominal float64) Statistics {
	s := Statistics{Count: len(results)}
	if len(results) == 0 {
		return s
	}
	fid := make([]float64, len(results))
	converged := 0
	for i, r := range results {
		fid[i] = r.Fidelity
		if r.Converged {
			converged++
		}
		if r.Failed {
			s.Failures++
		}
	}
	s.MeanFidelity = stat.Mean(fid, nil)
	if len(fid) > 1 {
		s.StandardError = stat.StdDev(fid, nil) / math.Sqrt(float64(len(fid)))
	}
	s.ConvergenceRate = float64(converged) / float64(len(results))
	if nominal > 0 {
		for _, f := range fid {
			if dev := math.Abs(f-nominal) / nominal; dev > s.EnvelopeMaxDeviation {
				s.EnvelopeMaxDeviation = dev
			}
		}
	}
	return s
}

// markOutliers returns a copy of results with trajectories beyond 3
// standard deviations of the campaign mean flagged, and the flag count.
// Flagged, not excluded: downstream review decides what to do with them.
func markOutliers(results []Result, stats Statistics) ([]Result, int) {
	out := make([]Result, len(results))
	copy(out, results)
	if len(results) < 2 {
		return out, 0
	}
	sigma := stats.StandardError * math.Sqrt(float64(stats.Count))
	if sigma == 0 {
		return out, 0
	}
	n := 0
	for i := range out {
		if math.Abs(out[i].Fidelity-stats.MeanFidelity) > outlierSigmas*sigma {
			out[i].Outlier = true
			n++
		}
	}
	return out, n
}

// GatePassed applies the reference acceptance gate to s. Reported as a
// convenience for CLI callers; the engine itself never enforces it.
func (s Statistics) GatePassed(meanGate, seGate, convGate float64) bool {
	return s.MeanFidelity >= meanGate &&
		s.StandardError <= seGate &&
		s.ConvergenceRate >= convGate
}
