package output

// TSVHeader is the canonical header row for text/TSV outputs.
// Keep this as the single source of truth; all writers should use it.
const TSVHeader = "trajectory_id\tvehicle_or_tag\tfidelity\tpurity\tconverged\tfailed\toutlier\tlatency_ms"
