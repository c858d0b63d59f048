// Package circuit defines the immutable operation list a kernel executes.
package circuit

import "fmt"

// Kind tags one gate-like primitive. The set is closed; validation rejects
// anything else before the kernel ever sees it.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindH            // Hadamard
	KindX            // Pauli-X
	KindZ            // Pauli-Z
	KindRX           // rotation about X, parametrized
	KindRY           // rotation about Y, parametrized
	KindRZ           // rotation about Z, parametrized
	KindCX           // controlled-X
)

func (k Kind) String() string {
	switch k {
	case KindH:
		return "h"
	case KindX:
		return "x"
	case KindZ:
		return "z"
	case KindRX:
		return "rx"
	case KindRY:
		return "ry"
	case KindRZ:
		return "rz"
	case KindCX:
		return "cx"
	default:
		return "invalid"
	}
}

// ParseKind maps the textual gate name to its Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "h":
		return KindH, true
	case "x":
		return KindX, true
	case "z":
		return KindZ, true
	case "rx":
		return KindRX, true
	case "ry":
		return KindRY, true
	case "rz":
		return KindRZ, true
	case "cx":
		return KindCX, true
	default:
		return KindInvalid, false
	}
}

// Rotational reports whether the kind carries a Theta parameter.
func (k Kind) Rotational() bool { return k == KindRX || k == KindRY || k == KindRZ }

// Op is one typed operation. Control is meaningful only for cx; Theta only
// for rotations. Malformed combinations are rejected by Validate.
type Op struct {
	Kind    Kind
	Target  int
	Control int // cx only
	Theta   float64
}

func (o Op) String() string {
	switch {
	case o.Kind == KindCX:
		return fmt.Sprintf("cx %d %d", o.Control, o.Target)
	case o.Kind.Rotational():
		return fmt.Sprintf("%s %d %g", o.Kind, o.Target, o.Theta)
	default:
		return fmt.Sprintf("%s %d", o.Kind, o.Target)
	}
}

// Circuit is an ordered sequence of ops over a declared qubit count.
// Immutable after New: Ops returns a copy-on-read view.
type Circuit struct {
	qubits int
	ops    []Op
}

// New builds a circuit from a declared dimensionality and an op list.
// The op slice is copied so later caller mutation cannot reach the circuit.
func New(qubits int, ops []Op) Circuit {
	cp := make([]Op, len(ops))
	copy(cp, ops)
	return Circuit{qubits: qubits, ops: cp}
}

// Qubits returns the declared qubit count.
func (c Circuit) Qubits() int { return c.qubits }

// Len returns the number of operations.
func (c Circuit) Len() int { return len(c.ops) }

// Op returns the i-th operation.
func (c Circuit) Op(i int) Op { return c.ops[i] }

// Ops returns a copy of the op list; callers cannot mutate the circuit.
func (c Circuit) Ops() []Op {
	cp := make([]Op, len(c.ops))
	copy(cp, c.ops)
	return cp
}

// Dim returns the statevector length 2^qubits.
func (c Circuit) Dim() int { return 1 << uint(c.qubits) }
