// protocol.go defines the contract between the sandboxed caller and the root
// helper. The caller runs the helper as a subprocess with string arguments
// (see command.Invocation.Args); the helper answers with an exit code and
// line-oriented stdout. Nothing else crosses the boundary.
package helper

import (
	"strings"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/fileops"
)

// DefaultHelperPath is the helper binary location inside the elevated root.
const DefaultHelperPath = "/usr/libexec/swifile/roothelper"

// Helper exit codes. Anything nonzero is a failure; the split only separates
// caller mistakes from filesystem failures.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCodeFor maps a parse or dispatch error to the helper exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case fileops.IsProtocolError(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Response is what the caller reads back from one helper run.
type Response struct {
	ExitCode int
	// Lines is stdout split on newlines, blank separator lines included.
	Lines []string
	// Stderr is the helper's diagnostic output, trimmed.
	Stderr string
}

// Success reports whether the helper exited zero.
func (r *Response) Success() bool {
	return r.ExitCode == ExitOK
}

// Listings groups List output into one slice of names per operand.
func (r *Response) Listings() [][]string {
	var (
		listings [][]string
		current  = []string{}
	)
	for _, line := range r.Lines {
		if line == "" {
			listings = append(listings, current)
			current = []string{}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		listings = append(listings, current)
	}
	return listings
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}
