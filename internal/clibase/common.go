// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"

	"quasim-core/circuit"
	"quasim-core/precision"
	"quasim-core/seed"
	"quasim/internal/cliutil"
)

// Common holds CLI fields shared by quasim and quasim-exec.
type Common struct {
	// Input
	CircuitFile  string
	RandomQubits int
	RandomDepth  int
	RandomSeed   uint64

	// Seed
	Seed        uint64
	AutoSeed    bool
	Environment string

	// Kernel
	Precision      string
	Backend        string
	Threshold      float64
	WorkspaceLimit string // "256MiB" style; empty = default
	Noise          float64
	FaultRate      float64

	// Performance
	Threads int

	// Output
	Output   string // text|json|jsonl
	Header   bool
	Pretty   bool
	Tag      string
	AuditLog string
	Config   string

	// Misc
	Quiet   bool
	Version bool
}

// Register wires shared flags onto fs and returns a pointer to the "no-header"
// bool that the caller can use to set Common.Header = !noHeader after parsing.
func Register(fs *flag.FlagSet, c *Common) *bool {
	// Inputs
	fs.StringVar(&c.CircuitFile, "circuit", "", "circuit file or '-' for STDIN")
	fs.StringVar(&c.CircuitFile, "c", "", "alias of --circuit")
	fs.IntVar(&c.RandomQubits, "random-qubits", 0, "generate a random circuit over N qubits (conflicts with --circuit)")
	fs.IntVar(&c.RandomDepth, "random-depth", 24, "depth of the generated random circuit [24]")
	fs.Uint64Var(&c.RandomSeed, "random-seed", 1, "construction seed for the random circuit [1]")

	// Seed
	fs.Uint64Var(&c.Seed, "seed", 0, "base seed (ignored with --auto-seed) [0]")
	fs.BoolVar(&c.AutoSeed, "auto-seed", false, "draw the base seed from system entropy [false]")
	fs.StringVar(&c.Environment, "environment", "dev", "seed environment: dev | test | prod [dev]")
	fs.StringVar(&c.Environment, "e", "dev", "alias of --environment")

	// Kernel
	fs.StringVar(&c.Precision, "precision", "fp64", "numeric tier: fp8 | fp16 | fp32 | fp64 [fp64]")
	fs.StringVar(&c.Precision, "p", "fp64", "alias of --precision")
	fs.StringVar(&c.Backend, "backend", "auto", "execution backend: auto | cpu | accel [auto]")
	fs.Float64Var(&c.Threshold, "threshold", 0, "per-trajectory convergence fidelity threshold (0=default)")
	fs.StringVar(&c.WorkspaceLimit, "workspace-limit", "", "statevector memory cap, e.g. 256MiB (empty=default)")
	fs.Float64Var(&c.Noise, "noise", 0, "rotation jitter amplitude (0=default, negative disables)")
	fs.Float64Var(&c.FaultRate, "fault-rate", 0, "fault channel probability (0=default, negative disables)")

	// Performance
	fs.IntVar(&c.Threads, "threads", 0, "worker threads (0=all CPUs) [0]")
	fs.IntVar(&c.Threads, "t", 0, "alias of --threads")

	// Output
	fs.StringVar(&c.Output, "output", "text", "output: text | json | jsonl [text]")
	fs.StringVar(&c.Output, "o", "text", "alias of --output")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line [false]")
	fs.BoolVar(&c.Pretty, "pretty", false, "fidelity histogram block (text) [false]")
	fs.StringVar(&c.Tag, "tag", "sim", "vehicle/context tag carried into every result [sim]")
	fs.StringVar(&c.AuditLog, "audit-log", "", "append seed audit entries to this JSONL file")
	fs.StringVar(&c.Config, "config", "", "thresholds YAML file")

	// Misc
	fs.BoolVar(&c.Quiet, "quiet", false, "suppress non-essential warnings [false]")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")

	return &noHeader
}

// AfterParse finalizes header and the circuit positional, then runs shared
// validation.
func AfterParse(fs *flag.FlagSet, c *Common, noHeader *bool, posArgs []string) error {
	c.Header = !*noHeader

	if len(posArgs) > 0 {
		if c.CircuitFile != "" {
			return errors.New("--circuit conflicts with a positional circuit file")
		}
		if len(posArgs) > 1 {
			return fmt.Errorf("expected one circuit file, got %d", len(posArgs))
		}
		exp, err := cliutil.ExpandPositionals(posArgs)
		if err != nil {
			return err
		}
		if len(exp) != 1 {
			return fmt.Errorf("circuit pattern matched %d files, want exactly 1", len(exp))
		}
		c.CircuitFile = exp[0]
	}
	return Validate(c)
}

// Validate applies shared CLI invariants used by all tools.
func Validate(c *Common) error {
	usingFile := c.CircuitFile != ""
	usingRandom := c.RandomQubits != 0
	switch {
	case usingFile && usingRandom:
		return errors.New("--circuit conflicts with --random-qubits")
	case !usingFile && !usingRandom:
		return errors.New("provide --circuit or --random-qubits")
	}
	if usingRandom && (c.RandomQubits < 1 || c.RandomQubits > circuit.MaxQubits) {
		return fmt.Errorf("--random-qubits must be in [1,%d]", circuit.MaxQubits)
	}
	if usingRandom && c.RandomDepth < 1 {
		return errors.New("--random-depth must be ≥ 1")
	}
	if _, err := seed.ParseEnvironment(c.Environment); err != nil {
		return err
	}
	if _, err := precision.Parse(c.Precision); err != nil {
		return err
	}
	switch c.Backend {
	case "auto", "cpu", "accel":
	default:
		return fmt.Errorf("invalid --backend %q (want auto|cpu|accel)", c.Backend)
	}
	if c.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.New("--threshold must be within [0,1]")
	}
	switch c.Output {
	case "text", "json", "jsonl":
	default:
		return fmt.Errorf("invalid --output %q", c.Output)
	}
	return nil
}
