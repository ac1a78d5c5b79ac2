// Package cli is the taprelease command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// Version is set at build time using -ldflags.
var Version = "dev"

const (
	ExitOK     = 0
	ExitError  = 1
	ExitConfig = 2
)

// Run executes the command line and returns the process exit code. It never
// calls os.Exit so tests can drive it in-process.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return ExitOK
}

// ExitCode maps configuration failures to 2 and everything else to 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case terrors.Is(err, terrors.KindConfig):
		return ExitConfig
	default:
		return ExitError
	}
}
