// internal/execapp/app.go
package execapp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"quasim-core/kernel"
	"quasim-core/precision"
	"quasim-core/seed"
	"quasim/internal/appcore"
	"quasim/internal/config"
	"quasim/internal/execcli"
	"quasim/internal/jsonutil"
	"quasim/internal/output"
	"quasim/internal/runutil"
	"quasim/internal/version"
	"quasim/internal/writers"
	"quasim/pkg/api"
)

// ExitFailedTrajectory reports a completed run whose trajectory went
// numerically unstable. Distinct from usage (2) and runtime (3) failures.
const ExitFailedTrajectory = 1

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := execcli.NewFlagSet("quasim-exec")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = execcli.ParseArgs(fs, []string{"-h"})
		fs.SetOutput(outw)
		fs.Usage()
		code, ok := appcore.Flush(outw, stderr)
		if !ok {
			return code
		}
		return appcore.ExitOK
	}

	opts, err := execcli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(outw, "quasim version %s (quasim-exec)\n", version.Version)
		code, ok := appcore.Flush(outw, stderr)
		if !ok {
			return code
		}
		return appcore.ExitOK
	}

	logger := appcore.NewLogger(stderr, opts.Quiet)
	defer func() { _ = logger.Sync() }()

	thresholds, err := config.LoadFile(opts.Config)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}
	workspace, err := runutil.ParseByteSize(opts.WorkspaceLimit)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, fmt.Errorf("--workspace-limit: %w", err))
		return appcore.ExitUsage
	}
	template, err := appcore.LoadTemplate(opts.Common)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}

	audit, closeAudit, err := appcore.OpenAudit(opts.AuditLog, logger)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitRuntime
	}
	defer func() { _ = closeAudit() }()

	var mgrOpts []seed.Option
	if audit != nil {
		mgrOpts = append(mgrOpts, seed.WithSink(audit))
	}
	var mgr *seed.Manager
	if opts.AutoSeed {
		mgr = seed.NewAuto(mgrOpts...)
	} else {
		mgr = seed.New(opts.Seed, mgrOpts...)
	}
	rec, err := mgr.Generate(uint32(opts.BatchIndex), seed.Environment(opts.Environment))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}

	mode, _ := precision.Parse(opts.Precision)
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = thresholds.FidelityThreshold
	}
	noise := opts.Noise
	if noise == 0 {
		noise = thresholds.NoiseAmplitude
	}
	fault := opts.FaultRate
	if fault == 0 {
		fault = thresholds.FaultRate
	}

	kern, err := kernel.New(kernel.Config{
		Precision:         mode,
		Backend:           opts.Backend,
		FidelityThreshold: threshold,
		WorkspaceLimit:    workspace,
		NoiseAmplitude:    noise,
		FaultRate:         fault,
	}, logger)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitRuntime
	}

	doc := api.ExecV1{
		BaseSeed:    rec.BaseSeed,
		DerivedSeed: rec.DerivedSeed,
		BatchIndex:  rec.BatchIndex,
		Environment: string(rec.Environment),
		Precision:   mode.String(),
		Backend:     kern.BackendName(),
	}
	doc.TrajectoryID = fmt.Sprintf("traj-%04d-%016x", rec.BatchIndex, rec.DerivedSeed)
	doc.VehicleOrTag = opts.Tag
	doc.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	failed := false
	out, err := kern.Execute(template, rec.DerivedSeed)
	if err != nil {
		var ierr *kernel.InstabilityError
		if !errors.As(err, &ierr) {
			_, _ = fmt.Fprintln(stderr, err)
			return appcore.ExitRuntime
		}
		failed = true
		doc.Failed = true
		doc.Error = err.Error()
	} else {
		doc.Fidelity = out.Fidelity
		doc.Purity = out.Purity
		doc.Converged = out.Converged
		doc.LatencyMS = out.LatencyMS
		if opts.DumpState {
			doc.State = make([][2]float64, len(out.State))
			for i, a := range out.State {
				doc.State[i] = [2]float64{real(a), imag(a)}
			}
		}
	}

	switch opts.Output {
	case "json":
		err = jsonutil.EncodePretty(outw, doc)
	case "jsonl":
		err = json.NewEncoder(outw).Encode(doc)
	default:
		if opts.Header {
			_, err = fmt.Fprintln(outw, output.TSVHeader)
		}
		if err == nil {
			_, err = fmt.Fprintf(outw, "%s\t%s\t%.9f\t%.9f\t%s\t%s\t0\t%.6f\n",
				doc.TrajectoryID, doc.VehicleOrTag, doc.Fidelity, doc.Purity,
				boolCol(doc.Converged), boolCol(doc.Failed), doc.LatencyMS)
		}
	}
	if writers.IsBrokenPipe(err) {
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
	if failed {
		return ExitFailedTrajectory
	}
	return appcore.ExitOK
}

func boolCol(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
