// cmd/quasim-exec/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"quasim/internal/execapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	code := execapp.RunContext(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
