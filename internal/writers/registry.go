// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"quasim/internal/campaign"
	"quasim/internal/output"
)

// ReportWriter renders one complete campaign report.
type ReportWriter func(w io.Writer, rep *campaign.Report, header bool) error

// reportWriters is the format → handler registry (last registration wins).
var reportWriters = map[string]ReportWriter{}

// RegisterReport installs a handler for format.
func RegisterReport(format string, fn ReportWriter) { reportWriters[format] = fn }

// WriteReport dispatches rep to the handler registered for format.
func WriteReport(format string, w io.Writer, rep *campaign.Report, header bool) error {
	fn, ok := reportWriters[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	return fn(w, rep, header)
}

// Formats lists the registered format names.
func Formats() []string {
	out := make([]string, 0, len(reportWriters))
	for k := range reportWriters {
		out = append(out, k)
	}
	return out
}

func init() {
	RegisterReport("json", func(w io.Writer, rep *campaign.Report, _ bool) error {
		return output.WriteJSON(w, rep)
	})
	RegisterReport("text", output.WriteText)
}
