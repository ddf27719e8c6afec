package history

import (
	"time"

	"github.com/temirov/configtrace/internal/diffengine"
	"github.com/temirov/configtrace/internal/policy"
)

// RevisionMetadata describes one version-control revision.
type RevisionMetadata struct {
	ID        string    `json:"revision_id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// FileChange bundles one file's key-level changes within one revision pair.
// Failure carries the per-file error entry when one side of the pair could
// not be parsed or retrieved; history traversal never aborts on such files.
type FileChange struct {
	Path       string              `json:"path"`
	Summary    diffengine.Summary  `json:"summary"`
	Changes    []diffengine.Change `json:"changes,omitempty"`
	Violations []policy.Violation  `json:"violations,omitempty"`
	Failure    string              `json:"error,omitempty"`
}

// RevisionChangeSet groups every tracked file's changes for one revision,
// with policy violations attached per file when a policy was supplied.
type RevisionChangeSet struct {
	Revision    RevisionMetadata `json:"revision"`
	FileChanges []FileChange     `json:"file_changes"`
}

// Violations flattens the per-file violations of the change set.
func (changeSet RevisionChangeSet) Violations() []policy.Violation {
	violations := make([]policy.Violation, 0)
	for _, fileChange := range changeSet.FileChanges {
		violations = append(violations, fileChange.Violations...)
	}
	return violations
}

// WalkOptions bounds a history walk and optionally attaches a policy whose
// rules run against the current side of every touched file.
type WalkOptions struct {
	PathFilter string
	Limit      int
	Policy     *policy.Policy
}
