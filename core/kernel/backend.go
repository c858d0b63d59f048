package kernel

import (
	"fmt"
	"math"
	"math/cmplx"

	"quasim-core/circuit"
)

// Backend applies one operation to a statevector. Both implementations
// must visit amplitude pairs in ascending index order so their outputs are
// bit-identical; "accel" differs only in traversal blocking.
type Backend interface {
	Name() string
	Apply(state []complex128, op circuit.Op)
}

// Backend preference names accepted by Config.Backend.
const (
	BackendAuto  = "auto"
	BackendCPU   = "cpu"
	BackendAccel = "accel"
)

// BackendUnavailableError means no usable backend initialized at all.
// A failed accelerated probe with a healthy CPU path is not an error;
// that is the transparent fallback case.
type BackendUnavailableError struct {
	Preference string
	Reason     string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("no usable backend for preference %q: %s", e.Preference, e.Reason)
}

// accelProbe is the bounded, synchronous capability probe run at kernel
// construction. Swapped out by tests to force the fallback path.
var accelProbe = func() error {
	b := accelBackend{}
	state := []complex128{1, 0}
	b.Apply(state, circuit.Op{Kind: circuit.KindH, Target: 0})
	want := 1 / math.Sqrt2
	if math.Abs(real(state[0])-want) > 1e-12 || math.Abs(real(state[1])-want) > 1e-12 {
		return fmt.Errorf("accel self-check produced %v", state)
	}
	return nil
}

var cpuProbe = func() error {
	b := cpuBackend{}
	state := []complex128{1, 0}
	b.Apply(state, circuit.Op{Kind: circuit.KindX, Target: 0})
	if state[1] != 1 {
		return fmt.Errorf("cpu self-check produced %v", state)
	}
	return nil
}

/* ----------------------------- pair transforms ---------------------------- */

// applyPair applies the single-target gate matrix to the amplitude pair
// (a=|..0..⟩, b=|..1..⟩) and returns the transformed pair.
func applyPair(op circuit.Op, a, b complex128) (complex128, complex128) {
	switch op.Kind {
	case circuit.KindH:
		inv := complex(1/math.Sqrt2, 0)
		return inv * (a + b), inv * (a - b)
	case circuit.KindX:
		return b, a
	case circuit.KindZ:
		return a, -b
	case circuit.KindRX:
		c := complex(math.Cos(op.Theta/2), 0)
		s := complex(0, -math.Sin(op.Theta/2))
		return c*a + s*b, s*a + c*b
	case circuit.KindRY:
		c := complex(math.Cos(op.Theta/2), 0)
		s := complex(math.Sin(op.Theta/2), 0)
		return c*a - s*b, s*a + c*b
	case circuit.KindRZ:
		return cmplx.Exp(complex(0, -op.Theta/2)) * a, cmplx.Exp(complex(0, op.Theta/2)) * b
	default:
		return a, b
	}
}

/* -------------------------------- cpu path -------------------------------- */

// cpuBackend is the scalar reference path: one linear scan over the
// statevector, transforming each (i, i|mask) pair.
type cpuBackend struct{}

func (cpuBackend) Name() string { return BackendCPU }

func (cpuBackend) Apply(state []complex128, op circuit.Op) {
	mask := 1 << uint(op.Target)
	if op.Kind == circuit.KindCX {
		ctl := 1 << uint(op.Control)
		for i := range state {
			if i&ctl != 0 && i&mask == 0 {
				j := i | mask
				state[i], state[j] = state[j], state[i]
			}
		}
		return
	}
	for i := range state {
		if i&mask == 0 {
			j := i | mask
			state[i], state[j] = applyPair(op, state[i], state[j])
		}
	}
}

/* ------------------------------- accel path ------------------------------- */

// accelBackend walks the statevector in contiguous blocks of 2^(target+1)
// amplitudes, the layout an accelerated kernel would tile. Pair visit
// order matches the scalar path, so outputs are bit-identical.
type accelBackend struct{}

func (accelBackend) Name() string { return BackendAccel }

func (accelBackend) Apply(state []complex128, op circuit.Op) {
	mask := 1 << uint(op.Target)
	block := mask << 1
	if op.Kind == circuit.KindCX {
		ctl := 1 << uint(op.Control)
		for base := 0; base < len(state); base += block {
			for off := 0; off < mask; off++ {
				i := base + off
				if i&ctl != 0 {
					j := i + mask
					state[i], state[j] = state[j], state[i]
				}
			}
		}
		return
	}
	for base := 0; base < len(state); base += block {
		for off := 0; off < mask; off++ {
			i := base + off
			j := i + mask
			state[i], state[j] = applyPair(op, state[i], state[j])
		}
	}
}
