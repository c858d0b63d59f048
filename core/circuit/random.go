package circuit

import "math/rand/v2"

// Random builds a deterministic pseudo-random circuit for campaign
// templates and fuzzing. The same (qubits, depth, seed) triple always
// yields the same circuit. Roughly half the ops are rotations so every
// generated circuit exercises the parametrized path.
func Random(qubits, depth int, seed uint64) Circuit {
	rng := rand.New(rand.NewPCG(seed, seed^0x6A09E667F3BCC909))
	ops := make([]Op, 0, depth)
	for i := 0; i < depth; i++ {
		tgt := rng.IntN(qubits)
		switch rng.IntN(8) {
		case 0:
			ops = append(ops, Op{Kind: KindH, Target: tgt})
		case 1:
			ops = append(ops, Op{Kind: KindX, Target: tgt})
		case 2:
			ops = append(ops, Op{Kind: KindZ, Target: tgt})
		case 3:
			ops = append(ops, Op{Kind: KindRX, Target: tgt, Theta: rng.Float64() * 3.141592653589793})
		case 4:
			ops = append(ops, Op{Kind: KindRY, Target: tgt, Theta: rng.Float64() * 3.141592653589793})
		case 5, 6:
			ops = append(ops, Op{Kind: KindRZ, Target: tgt, Theta: rng.Float64() * 3.141592653589793})
		default:
			if qubits < 2 {
				ops = append(ops, Op{Kind: KindH, Target: tgt})
				continue
			}
			ctl := rng.IntN(qubits)
			for ctl == tgt {
				ctl = rng.IntN(qubits)
			}
			ops = append(ops, Op{Kind: KindCX, Control: ctl, Target: tgt})
		}
	}
	return New(qubits, ops)
}
