// Package writers turns campaign results into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (JSON/JSONL/TSV).
//   - Campaign stays domain-only; the app layer stays orchestration-only.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
package writers
