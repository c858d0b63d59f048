// internal/output/json.go
package output

import (
	"io"
	"time"

	"quasim-core/seed"
	"quasim/internal/campaign"
	"quasim/internal/jsonutil"
	"quasim/pkg/api"
)

// ToAPITrajectory converts a domain Result to the stable wire schema (v1).
func ToAPITrajectory(r campaign.Result) api.TrajectoryV1 {
	return api.TrajectoryV1{
		TrajectoryID: r.TrajectoryID,
		VehicleOrTag: r.Tag,
		Fidelity:     r.Fidelity,
		Purity:       r.Purity,
		Converged:    r.Converged,
		Failed:       r.Failed,
		Outlier:      r.Outlier,
		Error:        r.Err,
		LatencyMS:    r.LatencyMS,
		Timestamp:    r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func toAPITrajectories(list []campaign.Result) []api.TrajectoryV1 {
	out := make([]api.TrajectoryV1, 0, len(list))
	for _, r := range list {
		out = append(out, ToAPITrajectory(r))
	}
	return out
}

// ToAPICampaign converts a campaign report to the full v1 evidence document.
func ToAPICampaign(rep *campaign.Report) api.CampaignV1 {
	return api.CampaignV1{
		CampaignID:  rep.CampaignID,
		Environment: string(rep.Environment),
		Precision:   rep.Precision.String(),
		Backend:     rep.Backend,
		BaseSeed:    rep.BaseSeed,
		BaseAuto:    rep.BaseAuto,
		Results:     toAPITrajectories(rep.Results),
		Summary: api.SummaryV1{
			Count:                rep.Stats.Count,
			MeanFidelity:         rep.Stats.MeanFidelity,
			StandardError:        rep.Stats.StandardError,
			ConvergenceRate:      rep.Stats.ConvergenceRate,
			EnvelopeMaxDeviation: rep.Stats.EnvelopeMaxDeviation,
			Failures:             rep.Stats.Failures,
			Outliers:             rep.Stats.Outliers,
			Cancelled:            rep.Cancelled,
		},
	}
}

// ToAPIReplay converts a replay validation entry to its wire form.
func ToAPIReplay(e seed.ReplayEntry) api.ReplayV1 {
	return api.ReplayV1{
		SeedValue:         e.Record.DerivedSeed,
		BatchIndex:        e.Record.BatchIndex,
		Environment:       string(e.Record.Environment),
		TimestampOriginal: e.TimestampOriginal.UTC().Format(time.RFC3339Nano),
		TimestampReplay:   e.TimestampReplay.UTC().Format(time.RFC3339Nano),
		DriftMicroseconds: e.DriftMicroseconds,
		Match:             e.Match,
	}
}

// WriteJSON writes the full campaign evidence document (pretty-indented).
func WriteJSON(w io.Writer, rep *campaign.Report) error {
	return jsonutil.EncodePretty(w, ToAPICampaign(rep))
}
