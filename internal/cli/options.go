// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"quasim/internal/campaign"
	"quasim/internal/clibase"
	"quasim/internal/cliutil"
)

// Options holds all CLI flags and arguments for the campaign runner.
type Options struct {
	clibase.Common

	Trajectories int
	Nominal      float64
	EnforceGate  bool
	GateExitCode int

	Examples bool
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	noHeader := clibase.Register(fs, &opt.Common)

	fs.IntVar(&opt.Trajectories, "trajectories", campaign.MinTrajectories,
		fmt.Sprintf("trajectory count [%d,%d] [%d]", campaign.MinTrajectories, campaign.MaxTrajectories, campaign.MinTrajectories))
	fs.IntVar(&opt.Trajectories, "n", campaign.MinTrajectories, "alias of --trajectories")
	fs.Float64Var(&opt.Nominal, "nominal", 0, "nominal fidelity for the deviation envelope (0=default)")
	fs.BoolVar(&opt.EnforceGate, "enforce-gate", false, "exit non-zero when the acceptance gate fails [false]")
	fs.IntVar(&opt.GateExitCode, "gate-exit-code", 1, "exit code when --enforce-gate trips [1]")
	fs.BoolVar(&opt.Examples, "examples", false, "print usage examples and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	clibase.UsageCommon(fs, fs.Name(), func(out io.Writer, def func(string) string) {
		fmt.Fprintln(out, "Campaign:")
		fmt.Fprintf(out, "  -n, --trajectories int      Trajectory count [%s]\n", def("trajectories"))
		fmt.Fprintf(out, "      --nominal float         Nominal fidelity for the deviation envelope [%s]\n", def("nominal"))
		fmt.Fprintf(out, "      --enforce-gate          Exit non-zero when the acceptance gate fails [%s]\n", def("enforce-gate"))
		fmt.Fprintf(out, "      --gate-exit-code int    Exit code when --enforce-gate trips [%s]\n", def("gate-exit-code"))
	})

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Examples {
		clibase.PrintExamples(fs.Output(), fs.Name(), func(w io.Writer) {
			fmt.Fprintln(w, "  # 1024-trajectory fp64 campaign on a stored circuit, JSON evidence")
			fmt.Fprintf(w, "  %s --seed 42 -n 1024 -o json bell.qc\n\n", fs.Name())
			fmt.Fprintln(w, "  # quick random-circuit smoke campaign with an audit trail")
			fmt.Fprintf(w, "  %s --random-qubits 4 --auto-seed --audit-log seeds.jsonl\n", fs.Name())
		})
		return opt, clibase.ErrPrintedAndExitOK
	}
	if opt.Version {
		return opt, nil
	}

	if err := clibase.AfterParse(fs, &opt.Common, noHeader, posArgs); err != nil {
		return opt, err
	}
	if opt.Trajectories < campaign.MinTrajectories || opt.Trajectories > campaign.MaxTrajectories {
		return opt, fmt.Errorf("--trajectories must be in [%d,%d]", campaign.MinTrajectories, campaign.MaxTrajectories)
	}
	if opt.Nominal < 0 || opt.Nominal > 1 {
		return opt, errors.New("--nominal must be within [0,1]")
	}
	if opt.GateExitCode < 0 || opt.GateExitCode > 255 {
		return opt, errors.New("--gate-exit-code must be between 0 and 255")
	}
	return opt, nil
}
