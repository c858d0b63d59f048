// internal/output/text.go
package output

import (
	"fmt"
	"io"

	"quasim/internal/campaign"
)

// WriteText prints one TSV row per trajectory plus a summary footer.
func WriteText(w io.Writer, rep *campaign.Report, header bool) error {
	if header {
		if _, err := fmt.Fprintln(w, TSVHeader); err != nil {
			return err
		}
	}
	for _, r := range rep.Results {
		if _, err := fmt.Fprintln(w, FormatTrajectoryRowTSV(r)); err != nil {
			return err
		}
	}
	return WriteSummaryText(w, rep)
}

// WriteSummaryText prints the aggregate block as comment lines so the TSV
// body stays machine-parseable.
func WriteSummaryText(w io.Writer, rep *campaign.Report) error {
	s := rep.Stats
	_, err := fmt.Fprintf(w,
		"# campaign=%s environment=%s precision=%s backend=%s base_seed=%d\n"+
			"# count=%d mean_fidelity=%.9f standard_error=%.9f convergence_rate=%.6f envelope_max_deviation=%.9f failures=%d outliers=%d cancelled=%t\n",
		rep.CampaignID, rep.Environment, rep.Precision, rep.Backend, rep.BaseSeed,
		s.Count, s.MeanFidelity, s.StandardError, s.ConvergenceRate, s.EnvelopeMaxDeviation,
		s.Failures, s.Outliers, rep.Cancelled,
	)
	return err
}
