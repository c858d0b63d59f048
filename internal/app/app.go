// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"quasim-core/precision"
	"quasim-core/seed"
	"quasim/internal/appcore"
	"quasim/internal/campaign"
	"quasim/internal/cli"
	"quasim/internal/clibase"
	"quasim/internal/cmdutil"
	"quasim/internal/config"
	"quasim/internal/pretty"
	"quasim/internal/runutil"
	"quasim/internal/version"
	"quasim/internal/writers"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("quasim")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = cli.ParseArgs(fs, []string{"-h"})
		fs.SetOutput(outw)
		fs.Usage()
		code, ok := appcore.Flush(outw, stderr)
		if !ok {
			return code
		}
		return appcore.ExitOK
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fs.SetOutput(outw)
			fs.Usage()
			code, ok := appcore.Flush(outw, stderr)
			if !ok {
				return code
			}
			return appcore.ExitOK
		case errors.Is(err, clibase.ErrPrintedAndExitOK):
			fs2 := cli.NewFlagSet("quasim")
			fs2.SetOutput(outw)
			_, _ = cli.ParseArgs(fs2, argv)
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
		_, _ = fmt.Fprintf(outw, "quasim version %s\n", version.Version)
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
	nominal := opts.Nominal
	if nominal == 0 {
		nominal = thresholds.NominalReference
	}

	cfg := campaign.Config{
		Trajectories:      opts.Trajectories,
		Workers:           runutil.EffectiveWorkers(opts.Threads),
		Precision:         mode,
		Backend:           opts.Backend,
		Tag:               opts.Tag,
		Environment:       seed.Environment(opts.Environment),
		BaseSeed:          opts.Seed,
		AutoSeed:          opts.AutoSeed,
		FidelityThreshold: threshold,
		NominalReference:  nominal,
		WorkspaceLimit:    workspace,
		NoiseAmplitude:    noise,
		FaultRate:         fault,
	}
	engOpts := []campaign.Option{campaign.WithLogger(logger)}
	if audit != nil {
		engOpts = append(engOpts, campaign.WithAuditSink(audit))
	}
	eng, err := campaign.New(cfg, engOpts...)
	if err != nil {
		_ = closeAudit()
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitUsage
	}

	rep, err := eng.Run(parent, template)
	if err != nil {
		_ = closeAudit()
		if errors.Is(err, context.Canceled) {
			return appcore.ExitCancelled
		}
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitRuntime
	}
	if aerr := closeAudit(); aerr != nil {
		_, _ = fmt.Fprintln(stderr, aerr)
		return appcore.ExitRuntime
	}

	switch opts.Output {
	case "jsonl":
		in, writeErr := writers.StartTrajectoryJSONLWriter(outw, cfg.Workers*4)
		_, serr := cmdutil.StreamResults(parent, rep.Results, func(r campaign.Result) error {
			in <- r
			return nil
		})
		close(in)
		if werr := <-writeErr; writers.IsBrokenPipe(werr) {
			return appcore.ExitOK
		} else if werr != nil {
			_, _ = fmt.Fprintln(stderr, werr)
			return appcore.ExitRuntime
		}
		if serr != nil && !errors.Is(serr, context.Canceled) {
			_, _ = fmt.Fprintln(stderr, serr)
			return appcore.ExitRuntime
		}
	default:
		if werr := writers.WriteReport(opts.Output, outw, rep, opts.Header); writers.IsBrokenPipe(werr) {
			return appcore.ExitOK
		} else if werr != nil {
			_, _ = fmt.Fprintln(stderr, werr)
			return appcore.ExitRuntime
		}
		if opts.Output == "text" && opts.Pretty {
			fids := make([]float64, len(rep.Results))
			for i, r := range rep.Results {
				fids[i] = r.Fidelity
			}
			if _, werr := io.WriteString(outw, pretty.RenderHistogram(fids, pretty.DefaultOptions)); werr != nil && !writers.IsBrokenPipe(werr) {
				_, _ = fmt.Fprintln(stderr, werr)
				return appcore.ExitRuntime
			}
		}
	}
	if code, ok := appcore.Flush(outw, stderr); !ok {
		return code
	}

	if rep.Cancelled {
		return appcore.ExitCancelled
	}
	if opts.EnforceGate && !rep.Stats.GatePassed(
		thresholds.MeanFidelityGate, thresholds.StandardErrorGate, thresholds.ConvergenceRateGate) {
		logger.Warn("acceptance gate failed",
			zap.Float64("mean_fidelity", rep.Stats.MeanFidelity),
			zap.Float64("standard_error", rep.Stats.StandardError),
			zap.Float64("convergence_rate", rep.Stats.ConvergenceRate))
		return opts.GateExitCode
	}
	return appcore.ExitOK
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
