package seed

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Record is one immutable seed derivation. BaseAuto records whether the
// base seed was drawn from system entropy ("auto") rather than supplied.
type Record struct {
	BaseSeed    uint64
	BaseAuto    bool
	DerivedSeed uint64
	BatchIndex  uint32
	Environment Environment
	CreatedAt   time.Time
}

// ReplayEntry is the result of one explicit replay validation. Validation
// only observes; the original record is never altered.
type ReplayEntry struct {
	Record            Record
	TimestampOriginal time.Time
	TimestampReplay   time.Time
	DriftMicroseconds float64
	Match             bool
}

// CollisionError reports two trajectories in one batch sharing a derived
// seed. It is fatal to the batch and is never silently retried.
type CollisionError struct {
	Seed    uint64
	IndexA  uint32
	IndexB  uint32
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("seed collision: batch indices %d and %d both derived %#016x", e.IndexA, e.IndexB, e.Seed)
}

// Audit event kinds.
const (
	EventGenerate      = "generate"
	EventGenerateBatch = "generate_batch"
	EventAutoBase      = "auto_base"
	EventReplay        = "replay"
)

// Event is one append-only audit fact. Exactly one of Record-only
// (generation) or Replay (validation) applies per event.
type Event struct {
	Kind      string
	Record    Record
	Replay    *ReplayEntry
	Timestamp time.Time
}

// AuditSink receives every audit event, in order. Implementations must be
// safe for the Manager's single logical writer; the process-wide JSONL log
// in quasim/internal/auditlog is the production sink.
type AuditSink interface {
	Append(Event) error
}

type nopSink struct{}

func (nopSink) Append(Event) error { return nil }

// AuditSinkFunc adapts a plain function to an AuditSink.
type AuditSinkFunc func(Event) error

func (f AuditSinkFunc) Append(ev Event) error { return f(ev) }

// DefaultDriftLimitMicros is the replay-match threshold: replay drift
// below one microsecond counts as a match.
const DefaultDriftLimitMicros = 1.0

// Manager derives seeds and records every derivation. The zero value is
// not usable; construct with New.
type Manager struct {
	mu         sync.Mutex
	base       uint64
	baseAuto   bool
	baseFixed  bool // auto base drawn and pinned
	driftLimit float64
	sink       AuditSink
	now        func() time.Time
	entropy    func() (uint64, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSink routes audit events to s instead of discarding them.
func WithSink(s AuditSink) Option { return func(m *Manager) { m.sink = s } }

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithDriftLimit overrides the replay-match threshold in microseconds.
func WithDriftLimit(micros float64) Option { return func(m *Manager) { m.driftLimit = micros } }

// withEntropy overrides the auto-seed entropy source, for tests.
func withEntropy(f func() (uint64, error)) Option { return func(m *Manager) { m.entropy = f } }

// New returns a Manager with a fixed base seed.
func New(base uint64, opts ...Option) *Manager {
	m := &Manager{base: base, driftLimit: DefaultDriftLimitMicros, sink: nopSink{}, now: time.Now, entropy: systemEntropy}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewAuto returns a Manager whose base seed is drawn once from system
// entropy on first use and fixed thereafter, so all derivations stay
// deterministic relative to that recorded base.
func NewAuto(opts ...Option) *Manager {
	m := New(0, opts...)
	m.baseAuto = true
	m.baseFixed = false
	return m
}

func systemEntropy() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("draw entropy: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// BaseSeed returns the effective base seed, drawing it first if the
// manager was constructed in auto mode.
func (m *Manager) BaseSeed() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureBaseLocked(); err != nil {
		return 0, err
	}
	return m.base, nil
}

func (m *Manager) ensureBaseLocked() error {
	if !m.baseAuto || m.baseFixed {
		return nil
	}
	v, err := m.entropy()
	if err != nil {
		return err
	}
	m.base = v
	m.baseFixed = true
	ts := m.now().UTC()
	return m.sink.Append(Event{
		Kind:      EventAutoBase,
		Record:    Record{BaseSeed: v, BaseAuto: true, CreatedAt: ts},
		Timestamp: ts,
	})
}

// Generate derives the seed for one batch index. Deterministic: two calls
// with identical inputs produce identical derived seeds.
func (m *Manager) Generate(batch uint32, env Environment) (Record, error) {
	if _, err := ParseEnvironment(string(env)); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureBaseLocked(); err != nil {
		return Record{}, err
	}
	rec := m.deriveLocked(batch, env)
	if err := m.sink.Append(Event{Kind: EventGenerate, Record: rec, Timestamp: rec.CreatedAt}); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (m *Manager) deriveLocked(batch uint32, env Environment) Record {
	return Record{
		BaseSeed:    m.base,
		BaseAuto:    m.baseAuto,
		DerivedSeed: Derive(m.base, batch, env),
		BatchIndex:  batch,
		Environment: env,
		CreatedAt:   m.now().UTC(),
	}
}

// GenerateBatch derives count records with batch indices 0..count-1 and
// fails with *CollisionError if any two derived seeds coincide.
func (m *Manager) GenerateBatch(count int, env Environment) ([]Record, error) {
	if _, err := ParseEnvironment(string(env)); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("batch count %d < 1", count)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureBaseLocked(); err != nil {
		return nil, err
	}
	recs := make([]Record, count)
	seen := make(map[uint64]uint32, count)
	for i := 0; i < count; i++ {
		rec := m.deriveLocked(uint32(i), env)
		if prev, dup := seen[rec.DerivedSeed]; dup {
			return nil, &CollisionError{Seed: rec.DerivedSeed, IndexA: prev, IndexB: rec.BatchIndex}
		}
		seen[rec.DerivedSeed] = rec.BatchIndex
		recs[i] = rec
		if err := m.sink.Append(Event{Kind: EventGenerateBatch, Record: rec, Timestamp: rec.CreatedAt}); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// ValidateReplay compares a replayed generation timestamp against the
// original record and reports the drift. Observational only.
func (m *Manager) ValidateReplay(original Record, replayAt time.Time) (ReplayEntry, error) {
	drift := replayAt.Sub(original.CreatedAt)
	if drift < 0 {
		drift = -drift
	}
	micros := float64(drift.Nanoseconds()) / 1e3
	entry := ReplayEntry{
		Record:            original,
		TimestampOriginal: original.CreatedAt,
		TimestampReplay:   replayAt,
		DriftMicroseconds: micros,
		Match:             micros < m.driftLimit,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sink.Append(Event{Kind: EventReplay, Record: original, Replay: &entry, Timestamp: m.now().UTC()}); err != nil {
		return ReplayEntry{}, err
	}
	return entry, nil
}
