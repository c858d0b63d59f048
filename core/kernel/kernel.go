// Package kernel executes one circuit deterministically under a derived
// seed and a selectable precision tier, with capability-negotiated backend
// selection and transparent CPU fallback.
package kernel

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"quasim-core/circuit"
	"quasim-core/precision"
)

// Default contract values. Downstream acceptance gates depend on these
// verbatim; they are configurable but must default to these numbers.
const (
	DefaultFidelityThreshold = 0.97
	DefaultWorkspaceLimit    = int64(256 << 20) // bytes
	DefaultNoiseAmplitude    = 0.3              // uniform jitter full width, radians
	DefaultFaultRate         = 0.015            // seeded instability-channel probability
)

// normDriftTolerance bounds |‖ψ‖²−1| before execution is declared
// numerically unstable. Generous enough that honest fp8 rounding drift
// stays inside it.
const normDriftTolerance = 0.5

// Config is the explicit kernel parameter set.
type Config struct {
	Precision         precision.Mode
	Backend           string // auto | cpu | accel
	FidelityThreshold float64
	WorkspaceLimit    int64   // bytes; 0 means DefaultWorkspaceLimit
	NoiseAmplitude    float64 // 0 means DefaultNoiseAmplitude; <0 disables jitter
	FaultRate         float64 // 0 means DefaultFaultRate; <0 disables the fault channel
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendAuto
	}
	if c.FidelityThreshold == 0 {
		c.FidelityThreshold = DefaultFidelityThreshold
	}
	if c.WorkspaceLimit == 0 {
		c.WorkspaceLimit = DefaultWorkspaceLimit
	}
	if c.NoiseAmplitude == 0 {
		c.NoiseAmplitude = DefaultNoiseAmplitude
	} else if c.NoiseAmplitude < 0 {
		c.NoiseAmplitude = 0
	}
	if c.FaultRate == 0 {
		c.FaultRate = DefaultFaultRate
	} else if c.FaultRate < 0 {
		c.FaultRate = 0
	}
	return c
}

// Outcome is the result of one trajectory execution.
type Outcome struct {
	State     []complex128
	Fidelity  float64 // vs the noise-free fp64 reference, in [0,1]
	Purity    float64 // in [0,1]
	Converged bool
	LatencyMS float64 // wall time, always > 0
	Backend   string  // backend that actually ran
	FellBack  bool    // accelerated path requested but CPU ran
}

// InstabilityError reports overflow/NaN detected mid-execution. Fatal to
// the one trajectory only; campaigns record it and continue.
type InstabilityError struct {
	Step   int
	Norm   float64
	Detail string
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("numeric instability at op %d: %s (‖ψ‖²=%g)", e.Step, e.Detail, e.Norm)
}

// WorkspaceError rejects a circuit whose statevector exceeds the
// configured workspace limit. Caller-recoverable; nothing executes.
type WorkspaceError struct {
	Need  int64
	Limit int64
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("statevector needs %d bytes, workspace limit is %d", e.Need, e.Limit)
}

// Kernel is an execution handle bound to one negotiated backend.
type Kernel struct {
	cfg      Config
	backend  Backend
	fellBack bool
	log      *zap.Logger
}

// New negotiates a backend per cfg.Backend and returns a ready kernel.
// An unavailable accelerated backend is not an error: the kernel falls
// back to the CPU path and logs an informational event. Only when no
// backend at all initializes does New fail with *BackendUnavailableError.
func New(cfg Config, log *zap.Logger) (*Kernel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	k := &Kernel{cfg: cfg, log: log}

	switch cfg.Backend {
	case BackendCPU:
		if err := cpuProbe(); err != nil {
			return nil, &BackendUnavailableError{Preference: cfg.Backend, Reason: err.Error()}
		}
		k.backend = cpuBackend{}
	case BackendAccel, BackendAuto:
		if err := accelProbe(); err == nil {
			k.backend = accelBackend{}
			break
		} else if cerr := cpuProbe(); cerr != nil {
			return nil, &BackendUnavailableError{
				Preference: cfg.Backend,
				Reason:     fmt.Sprintf("accel: %v; cpu: %v", err, cerr),
			}
		} else {
			k.backend = cpuBackend{}
			k.fellBack = cfg.Backend == BackendAccel
			log.Info("accelerated backend unavailable, falling back to cpu",
				zap.String("preference", cfg.Backend),
				zap.String("probe_error", err.Error()))
		}
	default:
		return nil, &BackendUnavailableError{Preference: cfg.Backend, Reason: "unknown backend preference"}
	}
	return k, nil
}

// BackendName reports which backend execution will use.
func (k *Kernel) BackendName() string { return k.backend.Name() }

// Execute runs one seeded trajectory. Input validation is a hard gate:
// nothing executes for an invalid circuit. For a fixed
// (circuit, derived seed, precision) the returned state and fidelity are
// bit-identical on every invocation.
func (k *Kernel) Execute(c circuit.Circuit, derivedSeed uint64) (Outcome, error) {
	if err := c.Validate(); err != nil {
		return Outcome{}, err
	}
	if need := int64(16) << uint(c.Qubits()); need > k.cfg.WorkspaceLimit {
		return Outcome{}, &WorkspaceError{Need: need, Limit: k.cfg.WorkspaceLimit}
	}

	start := time.Now()

	// All stochastic inputs come from one PRNG in a fixed draw order:
	// fault gate, fault site, then one jitter draw per rotational op.
	rng := newRNG(derivedSeed)
	faulty := rng.Float64() < k.cfg.FaultRate
	faultStep := rng.IntN(c.Len())

	state := newState(c.Dim())
	prec := k.cfg.Precision
	for i := 0; i < c.Len(); i++ {
		op := c.Op(i)
		if op.Kind.Rotational() && k.cfg.NoiseAmplitude > 0 {
			op.Theta += (rng.Float64() - 0.5) * k.cfg.NoiseAmplitude
		}
		k.backend.Apply(state, op)
		if faulty && i == faultStep {
			// Seeded instability channel: drives the amplitude far past
			// any representable range so the stability check trips.
			state[len(state)-1] += complex(1e160, 0)
		}
		prec.QuantizeState(state)
		if err := checkStability(state, i); err != nil {
			return Outcome{}, err
		}
	}

	ref := k.reference(c)
	fid := fidelity(state, ref)
	norm2 := normSquared(state)
	out := Outcome{
		State:     state,
		Fidelity:  fid,
		Purity:    clamp01(norm2 * norm2),
		Converged: fid >= k.cfg.FidelityThreshold,
		LatencyMS: latencyMS(start),
		Backend:   k.backend.Name(),
		FellBack:  k.fellBack,
	}
	return out, nil
}

// Reference computes the noise-free fp64 reference state for c on the
// scalar path. Exported so campaign-level consumers can reuse one
// reference across trajectories of the same template.
func (k *Kernel) Reference(c circuit.Circuit) ([]complex128, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return k.reference(c), nil
}

func (k *Kernel) reference(c circuit.Circuit) []complex128 {
	state := newState(c.Dim())
	b := cpuBackend{}
	for i := 0; i < c.Len(); i++ {
		b.Apply(state, c.Op(i))
	}
	return state
}

func newState(dim int) []complex128 {
	state := make([]complex128, dim)
	state[0] = 1
	return state
}

func checkStability(state []complex128, step int) error {
	n2 := normSquared(state)
	if math.IsNaN(n2) || math.IsInf(n2, 0) {
		return &InstabilityError{Step: step, Norm: n2, Detail: "non-finite amplitude"}
	}
	if math.Abs(n2-1) > normDriftTolerance {
		return &InstabilityError{Step: step, Norm: n2, Detail: "norm drift beyond tolerance"}
	}
	return nil
}

func normSquared(state []complex128) float64 {
	s := 0.0
	for _, a := range state {
		s += real(a)*real(a) + imag(a)*imag(a)
	}
	return s
}

// fidelity is |⟨a|b⟩|² normalized by both norms and clamped to [0,1].
func fidelity(a, b []complex128) float64 {
	var re, im float64
	for i := range a {
		// conj(a[i]) * b[i]
		re += real(a[i])*real(b[i]) + imag(a[i])*imag(b[i])
		im += real(a[i])*imag(b[i]) - imag(a[i])*real(b[i])
	}
	na, nb := normSquared(a), normSquared(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01((re*re + im*im) / (na * nb))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func latencyMS(start time.Time) float64 {
	ms := float64(time.Since(start).Nanoseconds()) / 1e6
	if ms <= 0 {
		ms = 1e-6
	}
	return ms
}
