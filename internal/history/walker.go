package history

import (
	"context"
	"errors"
	"sort"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/diffengine"
	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/policy"
)

const (
	parentRevisionSuffixConstant = "^"
	walkCancelledReasonConstant  = "history walk cancelled"
)

// Walker replays configuration changes across repository history. Every git
// access funnels through the ContentRetriever, so the walker itself never
// touches the filesystem.
type Walker struct {
	contentRetriever ContentRetriever
	normalizer       *normalize.Normalizer
}

// NewWalker constructs a walker over the given retriever and normalizer.
func NewWalker(contentRetriever ContentRetriever, normalizer *normalize.Normalizer) *Walker {
	return &Walker{contentRetriever: contentRetriever, normalizer: normalizer}
}

// Walk enumerates revisions newest first and diffs every configuration file
// each revision touched against the same file in the revision's parent. A
// file that fails to parse becomes an entry carrying the parse failure; a
// malformed file never aborts the walk. Revisions that touched no
// configuration files are skipped.
func (walker *Walker) Walk(executionContext context.Context, options WalkOptions) ([]RevisionChangeSet, error) {
	revisions, logError := walker.contentRetriever.Log(executionContext, options.PathFilter, options.Limit)
	if logError != nil {
		return nil, logError
	}

	changeSets := make([]RevisionChangeSet, 0, len(revisions))
	for _, revision := range revisions {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, newHistoryError(walkCancelledReasonConstant, contextError)
		}

		touchedPaths, touchedError := walker.contentRetriever.TouchedFiles(executionContext, revision.ID)
		if touchedError != nil {
			return nil, touchedError
		}

		fileChanges, fileError := walker.diffTouchedFiles(executionContext, revision.ID, touchedPaths, options)
		if fileError != nil {
			return nil, fileError
		}
		if len(fileChanges) == 0 {
			continue
		}

		changeSets = append(changeSets, RevisionChangeSet{Revision: revision, FileChanges: fileChanges})
	}

	return changeSets, nil
}

// Compare diffs the configuration files reachable from two revisions. The
// compared file set is the union of configuration paths present in either
// revision, so files added or deleted between the two still surface.
func (walker *Walker) Compare(executionContext context.Context, oldReference string, newReference string, options WalkOptions) (*RevisionChangeSet, error) {
	oldRevisionID, oldResolveError := walker.contentRetriever.ResolveRevision(executionContext, oldReference)
	if oldResolveError != nil {
		return nil, oldResolveError
	}
	newRevisionID, newResolveError := walker.contentRetriever.ResolveRevision(executionContext, newReference)
	if newResolveError != nil {
		return nil, newResolveError
	}

	oldPaths, oldListError := walker.contentRetriever.ListFiles(executionContext, oldRevisionID, options.PathFilter)
	if oldListError != nil {
		return nil, oldListError
	}
	newPaths, newListError := walker.contentRetriever.ListFiles(executionContext, newRevisionID, options.PathFilter)
	if newListError != nil {
		return nil, newListError
	}

	comparedPaths := unionConfigurationPaths(oldPaths, newPaths)
	fileChanges := make([]FileChange, 0, len(comparedPaths))
	for _, comparedPath := range comparedPaths {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, newHistoryError(walkCancelledReasonConstant, contextError)
		}

		fileChange, changed, diffError := walker.diffFileBetween(executionContext, oldRevisionID, newRevisionID, comparedPath, options.Policy)
		if diffError != nil {
			return nil, diffError
		}
		if changed {
			fileChanges = append(fileChanges, fileChange)
		}
	}

	return &RevisionChangeSet{
		Revision:    RevisionMetadata{ID: newRevisionID},
		FileChanges: fileChanges,
	}, nil
}

func (walker *Walker) diffTouchedFiles(executionContext context.Context, revisionID string, touchedPaths []string, options WalkOptions) ([]FileChange, error) {
	fileChanges := make([]FileChange, 0)
	for _, touchedPath := range touchedPaths {
		if !normalize.IsConfigPath(touchedPath) {
			continue
		}

		fileChange, changed, diffError := walker.diffFileBetween(executionContext, revisionID+parentRevisionSuffixConstant, revisionID, touchedPath, options.Policy)
		if diffError != nil {
			return nil, diffError
		}
		if changed {
			fileChanges = append(fileChanges, fileChange)
		}
	}
	return fileChanges, nil
}

// diffFileBetween loads one path at two revisions, diffs the flattened
// mappings, and evaluates the policy against the newer side. An absent side
// is an empty mapping, so additions and deletions fall out of the ordinary
// diff. A parse or retrieval failure on either side yields a FileChange that
// records the failure instead of a diff.
func (walker *Walker) diffFileBetween(executionContext context.Context, oldRevisionID string, newRevisionID string, filePath string, evaluatedPolicy *policy.Policy) (FileChange, bool, error) {
	oldMapping, oldFailure, oldError := walker.mappingAt(executionContext, oldRevisionID, filePath)
	if oldError != nil {
		return FileChange{}, false, oldError
	}
	newMapping, newFailure, newError := walker.mappingAt(executionContext, newRevisionID, filePath)
	if newError != nil {
		return FileChange{}, false, newError
	}

	if len(oldFailure) > 0 || len(newFailure) > 0 {
		fileFailure := newFailure
		if len(fileFailure) == 0 {
			fileFailure = oldFailure
		}
		return FileChange{Path: filePath, Failure: fileFailure}, true, nil
	}

	changes := diffengine.Diff(oldMapping, newMapping)
	if len(changes) == 0 {
		return FileChange{}, false, nil
	}

	fileChange := FileChange{
		Path:    filePath,
		Summary: diffengine.Summarize(changes),
		Changes: changes,
	}
	if evaluatedPolicy != nil {
		fileChange.Violations = policy.Evaluate(evaluatedPolicy, newMapping, filePath)
	}
	return fileChange, true, nil
}

// mappingAt returns the flattened mapping for a path at a revision. Absence
// degrades to an empty mapping; a parse or retrieval failure is reported as
// text rather than as an error so one bad file cannot abort the walk.
func (walker *Walker) mappingAt(executionContext context.Context, revisionID string, filePath string) (canonical.Mapping, string, error) {
	content, present, contentError := walker.contentRetriever.ContentAt(executionContext, revisionID, filePath)
	if contentError != nil {
		var retrievalFailure *RetrievalError
		if errors.As(contentError, &retrievalFailure) {
			return nil, retrievalFailure.Error(), nil
		}
		return nil, "", contentError
	}
	if !present {
		return canonical.Mapping{}, "", nil
	}

	mapping, normalizeError := walker.normalizer.NormalizeFile(filePath, content)
	if normalizeError != nil {
		return nil, normalizeError.Error(), nil
	}
	return mapping, "", nil
}

func unionConfigurationPaths(oldPaths []string, newPaths []string) []string {
	seenPaths := make(map[string]struct{})
	unionPaths := make([]string, 0, len(oldPaths)+len(newPaths))
	for _, candidatePaths := range [][]string{oldPaths, newPaths} {
		for _, candidatePath := range candidatePaths {
			if !normalize.IsConfigPath(candidatePath) {
				continue
			}
			if _, seen := seenPaths[candidatePath]; seen {
				continue
			}
			seenPaths[candidatePath] = struct{}{}
			unionPaths = append(unionPaths, candidatePath)
		}
	}
	sort.Strings(unionPaths)
	return unionPaths
}
