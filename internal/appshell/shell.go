package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitInterrupted is reported when the run was cut short by a signal.
const ExitInterrupted = 130

// RunFunc is the shape of every command entry point.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

func Main(run RunFunc) {
	os.Exit(Exec(context.Background(), run, os.Args[1:], os.Stdout, os.Stderr))
}

// Exec runs run under a signal-aware context. With no arguments it asks for
// help; a cancelled run that still reports success is mapped to 130.
func Exec(parent context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	code := run(ctx, argv, stdout, stderr)
	// Normalize cancellation exit code.
	if ctx.Err() != nil && code == 0 {
		code = ExitInterrupted
	}
	return code
}
