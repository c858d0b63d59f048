// internal/cmdutil/run.go
package cmdutil

import (
	"context"

	"quasim/internal/campaign"
)

// StreamResults feeds completed trajectory results to send in order,
// honoring cancellation between sends. It returns the number sent and the
// first error encountered.
func StreamResults(
	ctx context.Context,
	results []campaign.Result,
	send func(campaign.Result) error,
) (int, error) {
	total := 0
	for _, r := range results {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		if err := send(r); err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}
