// internal/auditcli/options.go
package auditcli

import (
	"errors"
	"flag"
	"fmt"

	"quasim/internal/cliutil"
	"quasim/internal/version"
)

// Options holds CLI flags for the audit verifier.
type Options struct {
	LogFile    string
	ReplayFile string
	DriftLimit float64
	Output     string
	Quiet      bool
	Version    bool
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.LogFile, "log", "", "seed audit JSONL file to verify or '-' for STDIN")
	fs.StringVar(&opt.ReplayFile, "replay-against", "", "second audit log; validates per-entry replay drift against --log")
	fs.Float64Var(&opt.DriftLimit, "drift-limit", 0, "replay drift match threshold in microseconds (0=default)")
	fs.StringVar(&opt.Output, "output", "text", "output: text | json [text]")
	fs.StringVar(&opt.Output, "o", "text", "alias of --output")
	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress non-essential warnings [false]")
	fs.BoolVar(&opt.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "%s – seed audit chain verifier\n\n", fs.Name())
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)
		fmt.Fprintln(out, "Audit:")
		fmt.Fprintln(out, "      --log file              Audit JSONL to verify or '-' for STDIN [*]")
		fmt.Fprintln(out, "      --replay-against file   Second log; validate per-entry replay drift")
		fmt.Fprintln(out, "      --drift-limit float     Replay match threshold in µs (0=default)")
		fmt.Fprintln(out, "  -o, --output string         Output: text | json [text]")
		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintln(out, "  -q, --quiet                 Suppress non-essential warnings")
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}

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

	if len(posArgs) > 0 {
		if opt.LogFile != "" {
			return opt, errors.New("--log conflicts with a positional log file")
		}
		if len(posArgs) > 1 {
			return opt, fmt.Errorf("expected one log file, got %d", len(posArgs))
		}
		opt.LogFile = posArgs[0]
	}
	if opt.LogFile == "" {
		return opt, errors.New("provide an audit log via --log or a positional file")
	}
	if opt.DriftLimit < 0 {
		return opt, errors.New("--drift-limit must be ≥ 0")
	}
	switch opt.Output {
	case "text", "json":
	default:
		return opt, fmt.Errorf("invalid --output %q", opt.Output)
	}
	return opt, nil
}
