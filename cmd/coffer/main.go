package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"coffer/internal/faults"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err appropriately for its classification and returns the
// process exit code. User-facing faults print their message alone; internal
// faults additionally dump their diagnostic payload.
func reportError(err error) int {
	if errors.Is(err, context.Canceled) {
		return 1
	}

	fault, ok := faults.As(err)
	if !ok {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch fault.Kind {
	case faults.KindInternal:
		fmt.Fprintf(os.Stderr, "internal error: %s\n", fault.Message)
		if traceback, ok := fault.Data["traceback"].(string); ok && traceback != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, traceback)
		}
	default:
		fmt.Fprintln(os.Stderr, fault.Message)
	}
	return 1
}
