// internal/auditapp/app.go
package auditapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"quasim-core/seed"
	"quasim/internal/appcore"
	"quasim/internal/auditcli"
	"quasim/internal/auditlog"
	"quasim/internal/jsonutil"
	"quasim/internal/version"
	"quasim/internal/writers"
	"quasim/pkg/api"
)

// ExitChainBroken reports a verified-but-corrupt audit stream: a broken
// hash link, an altered entry, or a failed replay validation.
const ExitChainBroken = 1

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := auditcli.NewFlagSet("quasim-audit")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = auditcli.ParseArgs(fs, []string{"-h"})
		fs.SetOutput(outw)
		fs.Usage()
		code, ok := appcore.Flush(outw, stderr)
		if !ok {
			return code
		}
		return appcore.ExitOK
	}

	opts, err := auditcli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			code, ok := appcore.Flush(outw, stderr)
			if !ok {
				return code
			}
			return appcore.ExitOK
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		if code, ok := appcore.Flush(outw, stderr); !ok {
			return code
		}
		return appcore.ExitUsage
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "quasim version %s (quasim-audit)\n", version.Version)
		code, ok := appcore.Flush(outw, stderr)
		if !ok {
			return code
		}
		return appcore.ExitOK
	}

	entries, verr := verifyFile(opts.LogFile)
	if verr != nil {
		var cerr *auditlog.ChainError
		if errors.As(verr, &cerr) {
			_, _ = fmt.Fprintln(stderr, verr)
			return ExitChainBroken
		}
		_, _ = fmt.Fprintln(stderr, verr)
		return appcore.ExitRuntime
	}

	if opts.ReplayFile == "" {
		if err := writeVerified(outw, opts.Output, opts.LogFile, len(entries)); writers.IsBrokenPipe(err) {
			return appcore.ExitOK
		} else if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return appcore.ExitRuntime
		}
		if code, ok := appcore.Flush(outw, stderr); !ok {
			return code
		}
		if parent.Err() != nil {
			return appcore.ExitCancelled
		}
		return appcore.ExitOK
	}

	replayEntries, verr := verifyFile(opts.ReplayFile)
	if verr != nil {
		_, _ = fmt.Fprintln(stderr, verr)
		var cerr *auditlog.ChainError
		if errors.As(verr, &cerr) {
			return ExitChainBroken
		}
		return appcore.ExitRuntime
	}

	limit := opts.DriftLimit
	if limit == 0 {
		limit = seed.DefaultDriftLimitMicros
	}
	rows, allMatch := validateReplay(entries, replayEntries, limit)
	if err := writeReplay(outw, opts.Output, rows); writers.IsBrokenPipe(err) {
		return appcore.ExitOK
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitRuntime
	}
	if code, ok := appcore.Flush(outw, stderr); !ok {
		return code
	}
	if parent.Err() != nil {
		return appcore.ExitCancelled
	}
	if !allMatch {
		return ExitChainBroken
	}
	return appcore.ExitOK
}

func verifyFile(path string) ([]api.SeedAuditV1, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return auditlog.Verify(r)
}

type replayKey struct {
	event      string
	seedValue  uint64
	batchIndex uint32
	env        string
}

// validateReplay pairs generation entries from two verified logs and
// reports the timestamp drift per pair. A replayed campaign reproduces
// the same derived seeds, so an unpaired entry is itself a mismatch.
func validateReplay(original, replay []api.SeedAuditV1, limitMicros float64) ([]api.ReplayV1, bool) {
	index := make(map[replayKey]api.SeedAuditV1, len(original))
	for _, e := range original {
		if e.Event == seed.EventReplay {
			continue
		}
		index[replayKey{e.Event, e.SeedValue, e.BatchIndex, e.Environment}] = e
	}

	rows := make([]api.ReplayV1, 0, len(replay))
	allMatch := true
	for _, e := range replay {
		if e.Event == seed.EventReplay {
			continue
		}
		row := api.ReplayV1{
			SeedValue:       e.SeedValue,
			BatchIndex:      e.BatchIndex,
			Environment:     e.Environment,
			TimestampReplay: e.Timestamp,
		}
		orig, ok := index[replayKey{e.Event, e.SeedValue, e.BatchIndex, e.Environment}]
		if !ok {
			allMatch = false
			rows = append(rows, row)
			continue
		}
		row.TimestampOriginal = orig.Timestamp
		row.DriftMicroseconds = driftMicros(orig.Timestamp, e.Timestamp)
		row.Match = row.DriftMicroseconds < limitMicros
		if !row.Match {
			allMatch = false
		}
		rows = append(rows, row)
	}
	return rows, allMatch
}

func driftMicros(a, b string) float64 {
	ta, erra := time.Parse(time.RFC3339Nano, a)
	tb, errb := time.Parse(time.RFC3339Nano, b)
	if erra != nil || errb != nil {
		return -1
	}
	d := tb.Sub(ta)
	if d < 0 {
		d = -d
	}
	return float64(d.Nanoseconds()) / 1e3
}

func writeVerified(w io.Writer, format, path string, n int) error {
	if format == "json" {
		return jsonutil.EncodePretty(w, map[string]any{
			"log":     path,
			"entries": n,
			"ok":      true,
		})
	}
	_, err := fmt.Fprintf(w, "ok\t%s\t%d entries\n", path, n)
	return err
}

func writeReplay(w io.Writer, format string, rows []api.ReplayV1) error {
	if format == "json" {
		return jsonutil.EncodePretty(w, rows)
	}
	for _, r := range rows {
		status := "match"
		if !r.Match {
			status = "MISMATCH"
		}
		if _, err := fmt.Fprintf(w, "%s\tseed=%#016x\tbatch=%d\tenv=%s\tdrift_us=%.3f\n",
			status, r.SeedValue, r.BatchIndex, r.Environment, r.DriftMicroseconds); err != nil {
			return err
		}
	}
	return nil
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
