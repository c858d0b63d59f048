// internal/execcli/options.go
package execcli

import (
	"flag"
	"fmt"
	"io"

	"quasim/internal/clibase"
	"quasim/internal/cliutil"
)

// Options holds CLI flags for the single-trajectory executor.
type Options struct {
	clibase.Common

	BatchIndex uint
	DumpState  bool
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	noHeader := clibase.Register(fs, &opt.Common)

	fs.UintVar(&opt.BatchIndex, "batch-index", 0, "batch index for seed derivation [0]")
	fs.BoolVar(&opt.DumpState, "dump-state", false, "emit final statevector amplitudes (json only) [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	clibase.UsageCommon(fs, fs.Name(), func(out io.Writer, def func(string) string) {
		fmt.Fprintln(out, "Trajectory:")
		fmt.Fprintf(out, "      --batch-index uint      Batch index for seed derivation [%s]\n", def("batch-index"))
		fmt.Fprintf(out, "      --dump-state            Emit final statevector amplitudes (json only) [%s]\n", def("dump-state"))
	})

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	if err := clibase.AfterParse(fs, &opt.Common, noHeader, posArgs); err != nil {
		return opt, err
	}
	if opt.BatchIndex > 1<<31 {
		return opt, fmt.Errorf("--batch-index %d too large", opt.BatchIndex)
	}
	if opt.DumpState && opt.Output != "json" {
		return opt, fmt.Errorf("--dump-state requires --output json")
	}
	return opt, nil
}
