package cli

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"quasim/internal/clibase"
)

func newFS() *flag.FlagSet { return flag.NewFlagSet("test", flag.ContinueOnError) }

func mustParse(t *testing.T, args ...string) Options {
	t.Helper()
	o, err := ParseArgs(newFS(), args)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return o
}

func TestCampaignFlagsOK(t *testing.T) {
	o := mustParse(t,
		"--random-qubits", "4", "--seed", "42",
		"-n", "128", "-p", "fp32", "-o", "json",
	)
	if o.RandomQubits != 4 || o.Seed != 42 || o.Trajectories != 128 {
		t.Fatalf("bad parse: %+v", o)
	}
	if o.Precision != "fp32" || o.Output != "json" {
		t.Fatalf("bad parse: %+v", o)
	}
}

func TestPositionalCircuitFile(t *testing.T) {
	dir := t.TempDir()
	cf := filepath.Join(dir, "bell.qc")
	_ = os.WriteFile(cf, []byte("qubits 2\nh 0\ncx 0 1\n"), 0o644)

	o := mustParse(t, "--seed", "1", cf)
	if o.CircuitFile != cf {
		t.Fatalf("want circuit file %q, got %q", cf, o.CircuitFile)
	}
}

func TestCircuitConflictsWithRandom(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--circuit", "a.qc", "--random-qubits", "3"})
	if err == nil {
		t.Fatal("expected mutual exclusion error")
	}
}

func TestRequireCircuitSource(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--seed", "7"})
	if err == nil {
		t.Fatal("expected error when no circuit source given")
	}
}

func TestTrajectoryRangeRejected(t *testing.T) {
	for _, n := range []string{"1", "100000"} {
		_, err := ParseArgs(newFS(), []string{"--random-qubits", "3", "-n", n})
		if err == nil {
			t.Fatalf("trajectories=%s accepted", n)
		}
	}
}

func TestInvalidPrecisionRejected(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--random-qubits", "3", "--precision", "fp128"})
	if err == nil {
		t.Fatal("expected precision error")
	}
}

func TestInvalidEnvironmentRejected(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--random-qubits", "3", "--environment", "staging"})
	if err == nil {
		t.Fatal("expected environment error")
	}
}

func TestInvalidOutputRejected(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--random-qubits", "3", "--output", "xml"})
	if err == nil {
		t.Fatal("expected output error")
	}
}

func TestNoHeaderFlag(t *testing.T) {
	o := mustParse(t, "--random-qubits", "3", "--no-header")
	if o.Header {
		t.Fatal("--no-header did not clear Header")
	}
	o = mustParse(t, "--random-qubits", "3")
	if !o.Header {
		t.Fatal("Header should default to true")
	}
}

func TestExamplesSentinel(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--examples"})
	if !errors.Is(err, clibase.ErrPrintedAndExitOK) {
		t.Fatalf("want examples sentinel, got %v", err)
	}
}

func TestVersionSkipsValidation(t *testing.T) {
	o, err := ParseArgs(newFS(), []string{"--version"})
	if err != nil || !o.Version {
		t.Fatalf("version parse: %v %+v", err, o)
	}
}
