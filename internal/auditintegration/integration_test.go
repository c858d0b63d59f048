// internal/auditintegration/integration_test.go
package auditintegration

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quasim/internal/app"
	"quasim/internal/auditapp"
	"quasim/internal/execapp"
	"quasim/pkg/api"
)

func runCampaignWithAudit(t *testing.T, logPath string, seedArg string) {
	t.Helper()
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		"--random-qubits", "3", "--seed", seedArg, "-n", "64",
		"--audit-log", logPath, "--quiet",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("campaign exit %d err %s", code, errBuf.String())
	}
}

func TestAuditTrailVerifies(t *testing.T) {
	log := filepath.Join(t.TempDir(), "seeds.jsonl")
	runCampaignWithAudit(t, log, "42")

	var out, errBuf bytes.Buffer
	code := auditapp.Run([]string{"--log", log}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("verify exit %d err %s", code, errBuf.String())
	}
	if !strings.HasPrefix(out.String(), "ok\t") {
		t.Fatalf("unexpected verify output %q", out.String())
	}
	if !strings.Contains(out.String(), "64 entries") {
		t.Fatalf("want 64 audit entries, got %q", out.String())
	}
}

func TestAuditTamperDetected(t *testing.T) {
	log := filepath.Join(t.TempDir(), "seeds.jsonl")
	runCampaignWithAudit(t, log, "42")

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	lines := bytes.Split(data, []byte("\n"))
	var entry api.SeedAuditV1
	if err := json.Unmarshal(lines[1], &entry); err != nil {
		t.Fatalf("line 2: %v", err)
	}
	entry.SeedValue++
	tampered, _ := json.Marshal(entry)
	lines[1] = tampered
	if err := os.WriteFile(log, bytes.Join(lines, []byte("\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errBuf bytes.Buffer
	code := auditapp.Run([]string{"--log", log}, &out, &errBuf)
	if code != 1 {
		t.Fatalf("want exit 1 on tampered chain, got %d", code)
	}
	if !strings.Contains(errBuf.String(), "line 2") {
		t.Fatalf("diagnostic should name line 2, got %q", errBuf.String())
	}
}

func TestReplayDriftValidation(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	b := filepath.Join(dir, "b.jsonl")
	runCampaignWithAudit(t, a, "42")
	runCampaignWithAudit(t, b, "42")

	var out, errBuf bytes.Buffer
	code := auditapp.Run([]string{"--log", a, "--replay-against", b, "--drift-limit", "1e9", "-o", "json"}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("replay exit %d err %s", code, errBuf.String())
	}
	var rows []api.ReplayV1
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 64 {
		t.Fatalf("want 64 replay rows, got %d", len(rows))
	}
	for i, r := range rows {
		if !r.Match {
			t.Fatalf("row %d should match under a huge drift limit: %+v", i, r)
		}
	}
}

func TestReplaySeedMismatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	b := filepath.Join(dir, "b.jsonl")
	runCampaignWithAudit(t, a, "42")
	runCampaignWithAudit(t, b, "43") // different base seed derives different values

	var out, errBuf bytes.Buffer
	code := auditapp.Run([]string{"--log", a, "--replay-against", b, "--drift-limit", "1e9"}, &out, &errBuf)
	if code != 1 {
		t.Fatalf("want exit 1 when derived seeds differ, got %d", code)
	}
	if !strings.Contains(out.String(), "MISMATCH") {
		t.Fatalf("expected MISMATCH rows, got %q", out.String())
	}
}

func TestExecAppendsToSameChain(t *testing.T) {
	log := filepath.Join(t.TempDir(), "seeds.jsonl")
	runCampaignWithAudit(t, log, "42")

	var out, errBuf bytes.Buffer
	code := execapp.Run([]string{
		"--random-qubits", "3", "--seed", "42", "--batch-index", "3",
		"--audit-log", log, "--quiet", "--fault-rate", "-1",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("exec exit %d err %s", code, errBuf.String())
	}

	out.Reset()
	errBuf.Reset()
	if code := auditapp.Run([]string{"--log", log}, &out, &errBuf); code != 0 {
		t.Fatalf("chain broken after exec append: exit %d err %s", code, errBuf.String())
	}
	if !strings.Contains(out.String(), "65 entries") {
		t.Fatalf("want 65 entries, got %q", out.String())
	}
}
