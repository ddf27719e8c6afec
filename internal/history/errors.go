package history

import "fmt"

const (
	historyErrorTemplateConstant   = "history error: %s"
	retrievalErrorTemplateConstant = "cannot retrieve %q at revision %s: %s"
)

// HistoryError reports an invalid revision reference or a directory that is
// not under version control. It is fatal for history commands.
type HistoryError struct {
	Reason string
	cause  error
}

// Error renders the reason.
func (historyError *HistoryError) Error() string {
	return fmt.Sprintf(historyErrorTemplateConstant, historyError.Reason)
}

// Unwrap exposes the underlying failure when one exists.
func (historyError *HistoryError) Unwrap() error {
	return historyError.cause
}

func newHistoryError(reason string, cause error) *HistoryError {
	return &HistoryError{Reason: reason, cause: cause}
}

// RetrievalError reports content that could not be fetched for one file at
// one revision. It is recoverable: the walker downgrades it to a per-file
// entry instead of aborting the walk.
type RetrievalError struct {
	Revision string
	Path     string
	cause    error
}

// Error names the file and revision.
func (retrievalError *RetrievalError) Error() string {
	return fmt.Sprintf(retrievalErrorTemplateConstant, retrievalError.Path, retrievalError.Revision, retrievalError.cause)
}

// Unwrap exposes the underlying failure.
func (retrievalError *RetrievalError) Unwrap() error {
	return retrievalError.cause
}

func newRetrievalError(revision string, path string, cause error) *RetrievalError {
	return &RetrievalError{Revision: revision, Path: path, cause: cause}
}
