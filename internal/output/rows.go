package output

import (
	"fmt"
	"strconv"

	"quasim/internal/campaign"
)

func boolCol(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatTrajectoryRowTSV returns the 8 base columns (no trailing newline).
func FormatTrajectoryRowTSV(r campaign.Result) string {
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s",
		r.TrajectoryID, r.Tag,
		strconv.FormatFloat(r.Fidelity, 'f', 9, 64),
		strconv.FormatFloat(r.Purity, 'f', 9, 64),
		boolCol(r.Converged), boolCol(r.Failed), boolCol(r.Outlier),
		strconv.FormatFloat(r.LatencyMS, 'f', 6, 64),
	)
}
