// internal/campaign/result.go
package campaign

import (
	"fmt"
	"time"
)

// Result is one completed trajectory. Created once by the campaign that
// requested it and never mutated afterwards.
type Result struct {
	TrajectoryID string
	Tag          string
	Index        uint32
	DerivedSeed  uint64
	Fidelity     float64 // [0,1]
	Purity       float64 // [0,1]
	Converged    bool
	Failed       bool   // numeric instability isolated to this trajectory
	Outlier      bool   // |fidelity − mean| > 3σ, flagged not excluded
	Err          string // diagnostic for failed trajectories
	LatencyMS    float64
	Timestamp    time.Time
}

// trajectoryID is deterministic so a replayed campaign reproduces the
// same identifiers: index plus derived seed, no wall-clock component.
func trajectoryID(index uint32, derived uint64) string {
	return fmt.Sprintf("traj-%04d-%016x", index, derived)
}
