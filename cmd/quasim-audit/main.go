// cmd/quasim-audit/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"quasim/internal/auditapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := auditapp.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
