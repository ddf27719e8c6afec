package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/configtrace/internal/execshell"
)

const (
	gitLogSubcommandConstant            = "log"
	gitShowSubcommandConstant           = "show"
	gitLSTreeSubcommandConstant         = "ls-tree"
	gitDiffTreeSubcommandConstant       = "diff-tree"
	gitRevParseSubcommandConstant       = "rev-parse"
	gitIsInsideWorkTreeFlagConstant     = "--is-inside-work-tree"
	gitVerifyFlagConstant               = "--verify"
	gitRecursiveFlagConstant            = "-r"
	gitNameOnlyFlagConstant             = "--name-only"
	gitNoCommitIDFlagConstant           = "--no-commit-id"
	gitRootFlagConstant                 = "--root"
	gitMaxCountFlagConstant             = "--max-count"
	gitPrettyFormatFlagConstant         = "--pretty=format:%H%x1f%an%x1f%aI%x1f%s"
	gitPathspecSeparatorConstant        = "--"
	gitCommitSuffixConstant             = "^{commit}"
	gitTrueOutputConstant               = "true"
	gitRecordFieldSeparatorConstant     = "\x1f"
	gitRevisionPathSeparatorConstant    = ":"
	notARepositoryReasonConstant        = "not a git repository"
	invalidRevisionTemplateConstant     = "invalid revision reference %q"
	gitLogFailureTemplateConstant       = "git log failed: %s"
	gitListFailureTemplateConstant      = "git ls-tree failed for %q: %s"
	touchedFilesFailureTemplateConstant = "git diff-tree failed for %q: %s"
	gitLogRecordFieldCountConstant      = 4
)

// GitExecutor is the subset of shell execution the retriever needs.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitContentRetriever implements ContentRetriever on top of the git command
// line. All invocations run inside the configured repository path.
type GitContentRetriever struct {
	gitExecutor    GitExecutor
	repositoryPath string
}

// NewGitContentRetriever constructs a retriever for the repository rooted at
// repositoryPath, verifying that the directory is inside a git work tree.
func NewGitContentRetriever(executionContext context.Context, gitExecutor GitExecutor, repositoryPath string) (*GitContentRetriever, error) {
	retriever := &GitContentRetriever{gitExecutor: gitExecutor, repositoryPath: repositoryPath}

	executionResult, executionError := gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil || strings.TrimSpace(executionResult.StandardOutput) != gitTrueOutputConstant {
		return nil, newHistoryError(notARepositoryReasonConstant, executionError)
	}

	return retriever, nil
}

// Log enumerates revisions newest first using a unit-separator record format
// so author names and subjects survive unambiguous splitting.
func (retriever *GitContentRetriever) Log(executionContext context.Context, pathFilter string, limit int) ([]RevisionMetadata, error) {
	arguments := []string{gitLogSubcommandConstant, gitPrettyFormatFlagConstant}
	if limit > 0 {
		arguments = append(arguments, fmt.Sprintf("%s=%d", gitMaxCountFlagConstant, limit))
	}
	if len(pathFilter) > 0 {
		arguments = append(arguments, gitPathspecSeparatorConstant, pathFilter)
	}

	executionResult, executionError := retriever.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: retriever.repositoryPath,
	})
	if executionError != nil {
		return nil, newHistoryError(fmt.Sprintf(gitLogFailureTemplateConstant, describeGitFailure(executionError, executionResult)), executionError)
	}

	return parseLogRecords(executionResult.StandardOutput)
}

func parseLogRecords(logOutput string) ([]RevisionMetadata, error) {
	revisions := make([]RevisionMetadata, 0)
	for _, recordLine := range strings.Split(logOutput, "\n") {
		trimmedLine := strings.TrimSpace(recordLine)
		if len(trimmedLine) == 0 {
			continue
		}
		recordFields := strings.Split(trimmedLine, gitRecordFieldSeparatorConstant)
		if len(recordFields) < gitLogRecordFieldCountConstant {
			continue
		}
		timestamp, timestampError := time.Parse(time.RFC3339, recordFields[2])
		if timestampError != nil {
			timestamp = time.Time{}
		}
		revisions = append(revisions, RevisionMetadata{
			ID:        recordFields[0],
			Author:    recordFields[1],
			Timestamp: timestamp,
			Message:   recordFields[3],
		})
	}
	return revisions, nil
}

// TouchedFiles lists paths the revision modified relative to its immediate
// predecessor. The --root flag keeps the initial commit enumerable.
func (retriever *GitContentRetriever) TouchedFiles(executionContext context.Context, revisionID string) ([]string, error) {
	executionResult, executionError := retriever.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitDiffTreeSubcommandConstant, gitNoCommitIDFlagConstant, gitNameOnlyFlagConstant, gitRecursiveFlagConstant, gitRootFlagConstant, revisionID},
		WorkingDirectory: retriever.repositoryPath,
	})
	if executionError != nil {
		return nil, newHistoryError(fmt.Sprintf(touchedFilesFailureTemplateConstant, revisionID, describeGitFailure(executionError, executionResult)), executionError)
	}
	return splitPathLines(executionResult.StandardOutput), nil
}

// ListFiles lists every path present at the revision, optionally narrowed to
// a pathspec.
func (retriever *GitContentRetriever) ListFiles(executionContext context.Context, revisionID string, pathFilter string) ([]string, error) {
	arguments := []string{gitLSTreeSubcommandConstant, gitRecursiveFlagConstant, gitNameOnlyFlagConstant, revisionID}
	if len(pathFilter) > 0 {
		arguments = append(arguments, gitPathspecSeparatorConstant, pathFilter)
	}

	executionResult, executionError := retriever.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: retriever.repositoryPath,
	})
	if executionError != nil {
		return nil, newHistoryError(fmt.Sprintf(gitListFailureTemplateConstant, revisionID, describeGitFailure(executionError, executionResult)), executionError)
	}
	return splitPathLines(executionResult.StandardOutput), nil
}

// ContentAt fetches one file's bytes at one revision. A failing git show is
// treated as absence, which the walker downgrades to whole-file inference; a
// command that cannot launch at all is a *RetrievalError.
func (retriever *GitContentRetriever) ContentAt(executionContext context.Context, revisionID string, path string) ([]byte, bool, error) {
	executionResult, executionError := retriever.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitShowSubcommandConstant, revisionID + gitRevisionPathSeparatorConstant + path},
		WorkingDirectory: retriever.repositoryPath,
	})
	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			return nil, false, nil
		}
		return nil, false, newRetrievalError(revisionID, path, executionError)
	}
	return []byte(executionResult.StandardOutput), true, nil
}

// ResolveRevision verifies a symbolic reference points at a commit.
func (retriever *GitContentRetriever) ResolveRevision(executionContext context.Context, reference string) (string, error) {
	executionResult, executionError := retriever.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, reference + gitCommitSuffixConstant},
		WorkingDirectory: retriever.repositoryPath,
	})
	if executionError != nil {
		return "", newHistoryError(fmt.Sprintf(invalidRevisionTemplateConstant, reference), executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func splitPathLines(commandOutput string) []string {
	paths := make([]string, 0)
	for _, outputLine := range strings.Split(commandOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			paths = append(paths, trimmedLine)
		}
	}
	return paths
}

func describeGitFailure(executionError error, executionResult execshell.ExecutionResult) string {
	standardError := strings.TrimSpace(executionResult.StandardError)
	if len(standardError) > 0 {
		return standardError
	}
	return executionError.Error()
}
