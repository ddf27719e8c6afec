// Package history replays configuration changes across git history. The
// Walker diffs each revision's configuration files against their parents and
// can compare two arbitrary revisions; all repository access goes through the
// ContentRetriever interface so history traversal stays testable without a
// real repository.
package history
