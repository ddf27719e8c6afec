package history

import "context"

// ContentRetriever is the single gateway to the version-control object
// store. The walker depends only on this interface, so any backend that can
// enumerate revisions and serve file content at a revision can drive it, and
// tests substitute an in-memory implementation.
type ContentRetriever interface {
	// Log enumerates revision metadata newest first, optionally filtered to
	// revisions touching pathFilter and bounded by limit when positive.
	Log(executionContext context.Context, pathFilter string, limit int) ([]RevisionMetadata, error)
	// TouchedFiles lists the paths modified by the revision relative to its
	// immediate predecessor.
	TouchedFiles(executionContext context.Context, revisionID string) ([]string, error)
	// ListFiles lists every path present at the revision under pathFilter.
	ListFiles(executionContext context.Context, revisionID string, pathFilter string) ([]string, error)
	// ContentAt fetches file content at a revision. The boolean reports
	// presence: a missing file is not an error.
	ContentAt(executionContext context.Context, revisionID string, path string) ([]byte, bool, error)
	// ResolveRevision turns a symbolic reference into a revision identifier,
	// failing with *HistoryError for unknown references.
	ResolveRevision(executionContext context.Context, reference string) (string, error)
}
