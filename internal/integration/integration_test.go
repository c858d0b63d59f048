// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quasim/internal/app"
	"quasim/pkg/api"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", fn, err)
	}
	return fn
}

func TestEndToEndText(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "3", "--seed", "5", "-n", "64", "-t", "2",
	}, &out, &errBuf)

	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	if !strings.HasPrefix(out.String(), "trajectory_id\t") {
		t.Fatalf("expected TSV header, got %q", out.String()[:40])
	}
	if !strings.Contains(out.String(), "# campaign=") {
		t.Fatal("expected summary footer")
	}
}

func TestJSONEvidence(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "3", "--seed", "42", "-n", "64", "-o", "json",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}

	var doc api.CampaignV1
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Summary.Count != 64 || len(doc.Results) != 64 {
		t.Fatalf("want 64 results, got %d/%d", doc.Summary.Count, len(doc.Results))
	}
	if doc.Precision != "fp64" || doc.BaseSeed != 42 {
		t.Fatalf("bad evidence header: %+v", doc)
	}
	if doc.CampaignID == "" {
		t.Fatal("missing campaign id")
	}
}

func runJSONL(t *testing.T, threads int) []api.TrajectoryV1 {
	t.Helper()
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "4", "--seed", "11", "-n", "64",
		"-t", fmt.Sprint(threads), "-o", "jsonl",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("exit %d err %s", code, errBuf.String())
	}
	var rows []api.TrajectoryV1
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		var v api.TrajectoryV1
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		v.Timestamp = "" // wall clock, not part of the reproducible surface
		v.LatencyMS = 0
		rows = append(rows, v)
	}
	return rows
}

func TestParallelMatchesSerial(t *testing.T) {
	serial := runJSONL(t, 1)
	parallel := runJSONL(t, 4)
	if len(serial) != len(parallel) {
		t.Fatalf("row counts differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("trajectory %d differs\nserial:   %+v\nparallel: %+v", i, serial[i], parallel[i])
		}
	}
}

func TestCircuitFileInput(t *testing.T) {
	cf := writeFile(t, "bell.qc", "qubits 2\nh 0\ncx 0 1\n")
	var out, errBuf bytes.Buffer
	code := app.Run([]string{"--seed", "3", "-n", "64", cf}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("exit %d err %s", code, errBuf.String())
	}
}

func TestUsageErrorExit2(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--seed", "3"}, &out, &errBuf); code != 2 {
		t.Fatalf("want exit 2 without a circuit source, got %d", code)
	}
	if errBuf.Len() == 0 {
		t.Fatal("expected a diagnostic on stderr")
	}
}

func TestMalformedCircuitExit2(t *testing.T) {
	cf := writeFile(t, "bad.qc", "qubits 2\nwobble 0\n")
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{cf}, &out, &errBuf); code != 2 {
		t.Fatalf("want exit 2 for malformed circuit, got %d", code)
	}
}

func TestVersionFlag(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--version"}, &out, &errBuf); code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasPrefix(out.String(), "quasim version ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestGateEnforced(t *testing.T) {
	cfg := writeFile(t, "strict.yaml", "mean_fidelity_gate: 0.9999\n")
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "4", "--seed", "42", "-n", "128",
		"--config", cfg, "--enforce-gate", "--gate-exit-code", "9",
		"--quiet",
	}, &out, &errBuf)
	if code != 9 {
		t.Fatalf("want gate exit 9, got %d (err=%s)", code, errBuf.String())
	}
}

func TestGatePassesNoiseFree(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "3", "--seed", "42", "-n", "64",
		"--noise", "-1", "--fault-rate", "-1", "--enforce-gate",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("noise-free campaign should pass the gate, got %d (err=%s)", code, errBuf.String())
	}
}
