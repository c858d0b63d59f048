// internal/clibase/usage.go
package clibase

import (
	"flag"
	"fmt"
	"io"

	"quasim/internal/version"
)

// UsageCommon installs a shared Usage() handler on fs.
// extra prints tool-specific sections (usage examples, audit blocks, etc.).
func UsageCommon(fs *flag.FlagSet, name string, extra func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		// Header
		fmt.Fprintf(out, "%s – deterministic simulation & statistical campaign toolkit\n\n", name)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		// Tool-specific additions (usage examples, extra sections)
		if extra != nil {
			extra(out, def)
		}

		// Shared blocks
		fmt.Fprintln(out, "\nInput:")
		fmt.Fprintln(out, "  -c, --circuit file          Circuit file or '-' for STDIN [*]")
		fmt.Fprintf(out, "      --random-qubits int     Generate a random circuit over N qubits [%s]\n", def("random-qubits"))
		fmt.Fprintf(out, "      --random-depth int      Depth of the generated circuit [%s]\n", def("random-depth"))
		fmt.Fprintf(out, "      --random-seed uint      Construction seed for the generated circuit [%s]\n", def("random-seed"))

		fmt.Fprintln(out, "\nSeeding:")
		fmt.Fprintf(out, "      --seed uint             Base seed (ignored with --auto-seed) [%s]\n", def("seed"))
		fmt.Fprintf(out, "      --auto-seed             Draw the base seed from system entropy [%s]\n", def("auto-seed"))
		fmt.Fprintf(out, "  -e, --environment string    Seed environment: dev | test | prod [%s]\n", def("environment"))

		fmt.Fprintln(out, "\nKernel:")
		fmt.Fprintf(out, "  -p, --precision string      Numeric tier: fp8 | fp16 | fp32 | fp64 [%s]\n", def("precision"))
		fmt.Fprintf(out, "      --backend string        Execution backend: auto | cpu | accel [%s]\n", def("backend"))
		fmt.Fprintf(out, "      --threshold float       Convergence fidelity threshold (0=default) [%s]\n", def("threshold"))
		fmt.Fprintf(out, "      --workspace-limit str   Statevector memory cap, e.g. 256MiB [%s]\n", def("workspace-limit"))
		fmt.Fprintf(out, "      --noise float           Rotation jitter amplitude (0=default, <0 disables) [%s]\n", def("noise"))
		fmt.Fprintf(out, "      --fault-rate float      Fault channel probability (0=default, <0 disables) [%s]\n", def("fault-rate"))

		fmt.Fprintln(out, "\nPerformance:")
		fmt.Fprintf(out, "  -t, --threads int           Worker threads (0=all CPUs) [%s]\n", def("threads"))

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintf(out, "  -o, --output string         Output: text | json | jsonl [%s]\n", def("output"))
		fmt.Fprintf(out, "      --no-header             Suppress header line [%s]\n", def("no-header"))
		fmt.Fprintf(out, "      --pretty                Fidelity histogram block (text) [%s]\n", def("pretty"))
		fmt.Fprintf(out, "      --tag string            Vehicle/context tag on every result [%s]\n", def("tag"))
		fmt.Fprintf(out, "      --audit-log file        Append seed audit entries (JSONL) [%s]\n", def("audit-log"))
		fmt.Fprintf(out, "      --config file           Thresholds YAML file [%s]\n", def("config"))

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "  -q, --quiet                 Suppress non-essential warnings [%s]\n", def("quiet"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}
