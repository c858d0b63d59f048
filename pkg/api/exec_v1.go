// pkg/api/exec_v1.go
package api

// ExecV1 is the evidence document for a single-trajectory run. State is
// the final statevector as (re,im) pairs in basis order, present only on
// request.
type ExecV1 struct {
	TrajectoryV1

	BaseSeed    uint64       `json:"base_seed"`
	DerivedSeed uint64       `json:"derived_seed"`
	BatchIndex  uint32       `json:"batch_index"`
	Environment string       `json:"environment"`
	Precision   string       `json:"precision"`
	Backend     string       `json:"backend"`
	State       [][2]float64 `json:"state,omitempty"`
}
