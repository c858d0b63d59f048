package circuit

import (
	"fmt"
	"math"
)

// MaxQubits caps the statevector size (16 B/amplitude × 2^24 = 256 MiB).
const MaxQubits = 24

// ValidationError rejects a circuit before any execution starts.
type ValidationError struct {
	Index  int // offending op index, -1 for circuit-level problems
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid circuit: " + e.Reason
	}
	return fmt.Sprintf("invalid circuit: op %d: %s", e.Index, e.Reason)
}

// Validate is the hard input gate: non-empty, dimension-consistent, and
// all-numeric operands. It returns *ValidationError on the first violation.
func (c Circuit) Validate() error {
	if c.qubits < 1 {
		return &ValidationError{Index: -1, Reason: fmt.Sprintf("qubit count %d < 1", c.qubits)}
	}
	if c.qubits > MaxQubits {
		return &ValidationError{Index: -1, Reason: fmt.Sprintf("qubit count %d exceeds maximum %d", c.qubits, MaxQubits)}
	}
	if len(c.ops) == 0 {
		return &ValidationError{Index: -1, Reason: "empty operation list"}
	}
	for i, op := range c.ops {
		if err := c.validateOp(i, op); err != nil {
			return err
		}
	}
	return nil
}

func (c Circuit) validateOp(i int, op Op) error {
	switch op.Kind {
	case KindH, KindX, KindZ:
	case KindRX, KindRY, KindRZ:
		if math.IsNaN(op.Theta) || math.IsInf(op.Theta, 0) {
			return &ValidationError{Index: i, Reason: fmt.Sprintf("non-numeric angle for %s", op.Kind)}
		}
	case KindCX:
		if op.Control < 0 || op.Control >= c.qubits {
			return &ValidationError{Index: i, Reason: fmt.Sprintf("control %d out of range [0,%d)", op.Control, c.qubits)}
		}
		if op.Control == op.Target {
			return &ValidationError{Index: i, Reason: fmt.Sprintf("control and target both %d", op.Target)}
		}
	default:
		return &ValidationError{Index: i, Reason: "unknown operation kind"}
	}
	if op.Target < 0 || op.Target >= c.qubits {
		return &ValidationError{Index: i, Reason: fmt.Sprintf("target %d out of range [0,%d)", op.Target, c.qubits)}
	}
	return nil
}
