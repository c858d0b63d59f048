// pkg/api/seedaudit_v1.go
package api

// SeedAuditV1 is one line of the append-only seed audit stream consumed by
// external audit/compliance tooling. The chain fields make tampering
// detectable: each entry hashes its predecessor.
type SeedAuditV1 struct {
	EventID           string  `json:"event_id"`
	Event             string  `json:"event"` // generate | generate_batch | auto_base | replay
	SeedValue         uint64  `json:"seed_value"`
	BaseSeed          uint64  `json:"base_seed"`
	BatchIndex        uint32  `json:"batch_index"`
	Environment       string  `json:"environment"`
	Timestamp         string  `json:"timestamp"` // ISO 8601
	ReplayValidated   bool    `json:"replay_validated"`
	DriftMicroseconds float64 `json:"drift_microseconds"`
	PrevHash          string  `json:"prev_hash"`
	EntryHash         string  `json:"entry_hash"`
}

// ReplayV1 is the wire form of one replay audit entry.
type ReplayV1 struct {
	SeedValue         uint64  `json:"seed_value"`
	BatchIndex        uint32  `json:"batch_index"`
	Environment       string  `json:"environment"`
	TimestampOriginal string  `json:"timestamp_original"`
	TimestampReplay   string  `json:"timestamp_replay"`
	DriftMicroseconds float64 `json:"drift_microseconds"`
	Match             bool    `json:"match"`
}
