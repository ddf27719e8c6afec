// Package outcome defines the process-level result contract: a run that
// completed and found problems is distinct from a run that could not
// complete, and each maps to its own exit code.
package outcome

import "errors"

// Exit codes surfaced by the command-line layer.
const (
	ExitClean            = 0
	ExitFindingsDetected = 1
	ExitOperationalError = 2
)

// ErrFindingsDetected marks a run that completed successfully but surfaced
// secrets, policy violations, or differences. Commands wrap it so the
// entrypoint can tell findings apart from operational failures.
var ErrFindingsDetected = errors.New("findings detected")

// ExitCodeFromError maps a command result to the process exit code.
func ExitCodeFromError(commandError error) int {
	switch {
	case commandError == nil:
		return ExitClean
	case errors.Is(commandError, ErrFindingsDetected):
		return ExitFindingsDetected
	default:
		return ExitOperationalError
	}
}
