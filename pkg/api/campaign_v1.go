// pkg/api/campaign_v1.go
package api

// TrajectoryV1 is the stable JSON/JSONL schema for one trajectory result.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type TrajectoryV1 struct {
	TrajectoryID string  `json:"trajectory_id"`
	VehicleOrTag string  `json:"vehicle_or_tag"`
	Fidelity     float64 `json:"fidelity"`
	Purity       float64 `json:"purity"`
	Converged    bool    `json:"converged"`
	Failed       bool    `json:"failed,omitempty"`
	Outlier      bool    `json:"outlier,omitempty"`
	Error        string  `json:"error,omitempty"`
	LatencyMS    float64 `json:"latency_ms"`
	Timestamp    string  `json:"timestamp"` // ISO 8601
}

// SummaryV1 carries the aggregate statistics an external acceptance gate
// applies verbatim.
type SummaryV1 struct {
	Count                int     `json:"count"`
	MeanFidelity         float64 `json:"mean_fidelity"`
	StandardError        float64 `json:"standard_error"`
	ConvergenceRate      float64 `json:"convergence_rate"`
	EnvelopeMaxDeviation float64 `json:"envelope_max_deviation"`
	Failures             int     `json:"failures"`
	Outliers             int     `json:"outliers,omitempty"`
	Cancelled            bool    `json:"cancelled,omitempty"`
}

// CampaignV1 is the full campaign evidence document.
type CampaignV1 struct {
	CampaignID  string         `json:"campaign_id"`
	Environment string         `json:"environment"`
	Precision   string         `json:"precision"`
	Backend     string         `json:"backend"`
	BaseSeed    uint64         `json:"base_seed"`
	BaseAuto    bool           `json:"base_seed_auto,omitempty"`
	Results     []TrajectoryV1 `json:"results"`
	Summary     SummaryV1      `json:"summary"`
}
