// File: cmd/mimic/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/mimic/cmd"
	"github.com/xkilldash9x/mimic/internal/observability"
)

const panicLogFile = "panic.log"

// Replaced in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	// SIGINT/SIGTERM cancel the context; sessions stop between actions.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	osExit(exitCode(err))
}

// exitCode maps a command error to the process status. An interrupt is a
// clean shutdown, not a failure.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}

// handlePanic records the panic and its stack to panic.log and exits 2.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	msg := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(msg), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", msg)
		osExit(2)
		return
	}
	fmt.Fprintf(os.Stderr, "mimic crashed; details logged to %s\n", panicLogFile)
	osExit(2)
}
