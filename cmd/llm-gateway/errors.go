package main

import (
	"fmt"
	"os"

	"github.com/jkh/llm-gateway/pkg/gwerrors"
)

// exitCodeFor maps a command error to the CLI's exit-code contract:
// 0 success, 1 generic failure, 2 auth failure. cobra's Execute already
// printed err via its default error handler, so this only decides the
// process exit status.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ge, ok := gwerrors.As(err); ok {
		switch ge.Kind {
		case gwerrors.KindAuthAbsent, gwerrors.KindAuthExpired:
			return 2
		}
	}
	return 1
}

// fail prints a one-line error to stderr and exits with the right code —
// used by command Run handlers that want to report failure themselves
// rather than relying on cobra's default "Error: ..." line plus usage
// dump (appropriate for auth commands, where a usage dump isn't useful).
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(exitCodeFor(err))
}
