// internal/appcore/core.go
// Package appcore holds the run plumbing shared by the quasim tools:
// exit codes, logger construction, circuit loading, and audit-log wiring.
package appcore

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quasim-core/circuit"
	"quasim/internal/auditlog"
	"quasim/internal/clibase"
	"quasim/internal/writers"
)

// Process exit codes shared by all tools.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitRuntime   = 3
	ExitCancelled = 130
)

// NewLogger builds the operational logger. Events go to stderr so stdout
// stays a clean evidence stream; quiet raises the floor to errors.
func NewLogger(stderr io.Writer, quiet bool) *zap.Logger {
	level := zapcore.InfoLevel
	if quiet {
		level = zapcore.ErrorLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(stderr),
		level,
	)
	return zap.New(core)
}

// LoadTemplate materializes the circuit named by the shared CLI options:
// a stored circuit file, STDIN, or a generated random circuit.
func LoadTemplate(c clibase.Common) (circuit.Circuit, error) {
	if c.RandomQubits > 0 {
		return circuit.Random(c.RandomQubits, c.RandomDepth, c.RandomSeed), nil
	}
	if c.CircuitFile == "-" {
		return circuit.Load(os.Stdin, "stdin")
	}
	return circuit.LoadFile(c.CircuitFile)
}

// OpenAudit wires the seed audit trail to path (append-only JSONL).
// An empty path yields a nil log; callers must treat that as "no sink".
func OpenAudit(path string, logger *zap.Logger) (*auditlog.Log, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	prev := auditlog.GenesisHash
	if existing, err := os.Open(path); err == nil {
		prev, err = auditlog.LastHash(existing)
		_ = existing.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("resume audit log: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	log := auditlog.Resume(f, prev, logger)
	closer := func() error {
		cerr := log.Close()
		if ferr := f.Close(); cerr == nil {
			cerr = ferr
		}
		return cerr
	}
	return log, closer, nil
}

// Flush drains the buffered stdout writer. A broken pipe counts as a
// clean exit so use under `head` stays quiet.
func Flush(outw *bufio.Writer, stderr io.Writer) (int, bool) {
	if err := outw.Flush(); writers.IsBrokenPipe(err) {
		return ExitOK, false
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitRuntime, false
	}
	return ExitOK, true
}
