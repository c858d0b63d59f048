// Package auditlog is the process-wide, append-only seed audit log: one
// JSON line per event, hash-chained so external audit tooling can detect
// any rewrite. A single writer goroutine owns the output stream, which
// gives concurrent appenders a total order without fine-grained locking.
package auditlog

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quasim-core/seed"
	"quasim/pkg/api"
)

// GenesisHash anchors the chain: the first entry's prev_hash.
const GenesisHash = "sha256:genesis"

// Log implements seed.AuditSink. Entries are appended in send order and
// never rewritten.
type Log struct {
	ch   chan seed.Event
	done chan struct{}

	mu     sync.Mutex
	err    error
	closed bool

	log *zap.Logger
}

// New starts the writer goroutine over w. Callers own w's lifetime; Close
// flushes the channel but does not close w.
func New(w io.Writer, logger *zap.Logger) *Log {
	return Resume(w, GenesisHash, logger)
}

// Resume continues an existing chain: entries link to prev instead of the
// genesis anchor. Use LastHash to recover prev from an existing stream.
func Resume(w io.Writer, prev string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prev == "" {
		prev = GenesisHash
	}
	l := &Log{
		ch:   make(chan seed.Event, 256),
		done: make(chan struct{}),
		log:  logger,
	}
	go l.run(w, prev)
	return l
}

// LastHash scans a JSONL audit stream and returns the final entry hash,
// or GenesisHash for an empty stream. It does not verify the chain.
func LastHash(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	last := GenesisHash
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry api.SeedAuditV1
		if err := json.Unmarshal(line, &entry); err != nil {
			return "", fmt.Errorf("audit resume: %w", err)
		}
		last = entry.EntryHash
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return last, nil
}

func (l *Log) run(w io.Writer, prev string) {
	defer close(l.done)
	enc := json.NewEncoder(w)
	for e := range l.ch {
		entry := toWire(e)
		entry.PrevHash = prev
		h, err := entryHash(entry)
		if err == nil {
			entry.EntryHash = h
			err = enc.Encode(entry)
		}
		if err != nil {
			l.setErr(fmt.Errorf("audit append: %w", err))
			continue
		}
		prev = entry.EntryHash
		l.log.Debug("audit event appended",
			zap.String("event", entry.Event),
			zap.Uint32("batch_index", entry.BatchIndex))
	}
}

func (l *Log) setErr(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

// Append queues one event. It reports any earlier write failure so seed
// generation stops rather than silently losing trail entries.
func (l *Log) Append(e seed.Event) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("audit log closed")
	}
	err := l.err
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.ch <- e
	return nil
}

// Close drains pending events and returns the first write error, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	close(l.ch)
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func toWire(e seed.Event) api.SeedAuditV1 {
	entry := api.SeedAuditV1{
		EventID:     uuid.NewString(),
		Event:       e.Kind,
		SeedValue:   e.Record.DerivedSeed,
		BaseSeed:    e.Record.BaseSeed,
		BatchIndex:  e.Record.BatchIndex,
		Environment: string(e.Record.Environment),
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if e.Replay != nil {
		entry.ReplayValidated = true
		entry.DriftMicroseconds = e.Replay.DriftMicroseconds
	}
	return entry
}

// entryHash hashes the canonical JSON of the entry with EntryHash cleared.
func entryHash(entry api.SeedAuditV1) (string, error) {
	entry.EntryHash = ""
	b, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
