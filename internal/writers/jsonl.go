// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"quasim/internal/campaign"
	"quasim/internal/jsonlutil"
	"quasim/internal/output"
)

// StartTrajectoryJSONLWriter streams each campaign.Result as one JSON line (v1).
func StartTrajectoryJSONLWriter(out io.Writer, bufSize int) (chan<- campaign.Result, <-chan error) {
	return jsonlutil.Start[campaign.Result](out, bufSize,
		func(enc *json.Encoder, r campaign.Result) error {
			return enc.Encode(output.ToAPITrajectory(r))
		},
		IsBrokenPipe,
	)
}
