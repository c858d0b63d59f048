package auditlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"quasim/internal/runutil"
	"quasim/pkg/api"
)

// ChainError pinpoints the first corrupted entry found by Verify.
type ChainError struct {
	Line   int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain broken at line %d: %s", e.Line, e.Reason)
}

// Verify re-walks a JSONL audit stream and checks every entry hash and
// chain link. It returns the entries read; any corruption produces a
// *ChainError naming the first bad line.
func Verify(r io.Reader) ([]api.SeedAuditV1, error) {
	var entries []api.SeedAuditV1
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	prev := GenesisHash
	// Bounded dedupe: a replayed line keeps its old event ID, so a
	// duplicate is tampering even when the hashes still chain.
	seen := runutil.NewLRUSet[string](1 << 20)
	ln := 0
	for sc.Scan() {
		ln++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry api.SeedAuditV1
		if err := json.Unmarshal(line, &entry); err != nil {
			return entries, &ChainError{Line: ln, Reason: fmt.Sprintf("malformed JSON: %v", err)}
		}
		if entry.PrevHash != prev {
			return entries, &ChainError{Line: ln, Reason: fmt.Sprintf("prev_hash %s does not link to %s", entry.PrevHash, prev)}
		}
		want, err := entryHash(entry)
		if err != nil {
			return entries, &ChainError{Line: ln, Reason: err.Error()}
		}
		if entry.EntryHash != want {
			return entries, &ChainError{Line: ln, Reason: "entry hash mismatch (content altered)"}
		}
		if entry.EventID != "" && seen.Add(entry.EventID) {
			return entries, &ChainError{Line: ln, Reason: fmt.Sprintf("duplicate event_id %s", entry.EventID)}
		}
		prev = entry.EntryHash
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}
