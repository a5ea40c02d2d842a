// Package cli holds the entry-point conventions shared by bw-fields and r2-login.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// Report prints err as a single "ERROR: ..." line on w and returns the exit code.
// interrupted reports whether the run was cut short by SIGINT/SIGTERM.
func Report(w io.Writer, err error, interrupted bool) int {
	if interrupted || errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintln(w, "ERROR: interrupted")
		return ExitInterrupted
	}
	if err == nil {
		return ExitOK
	}
	_, _ = fmt.Fprintf(w, "ERROR: %v\n", err)
	return ExitError
}
