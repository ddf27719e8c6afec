// Package discovery locates configuration files on disk. Results are sorted
// so downstream reports stay deterministic, and unreadable entries are
// collected rather than aborting the walk.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/temirov/configtrace/internal/normalize"
)

const (
	rootNotFoundTemplateConstant = "cannot access %q: %w"
)

// FileIssue records one path that could not be visited during discovery.
type FileIssue struct {
	Path   string
	Reason string
}

// Result lists the configuration files found under a root plus any paths
// that could not be visited.
type Result struct {
	Files  []string
	Issues []FileIssue
}

// DiscoverConfigFiles walks root recursively and returns every file whose
// extension marks it as a configuration file. A root that is itself a single
// configuration file is returned as-is. Walk errors on individual entries
// become Issues; only an unreachable root is fatal.
func DiscoverConfigFiles(root string) (Result, error) {
	rootInformation, statError := os.Stat(root)
	if statError != nil {
		return Result{}, fmt.Errorf(rootNotFoundTemplateConstant, root, statError)
	}

	if !rootInformation.IsDir() {
		if normalize.IsConfigPath(root) {
			return Result{Files: []string{root}}, nil
		}
		return Result{}, nil
	}

	discovered := Result{Files: make([]string, 0), Issues: make([]FileIssue, 0)}
	walkError := filepath.WalkDir(root, func(visitedPath string, directoryEntry fs.DirEntry, visitError error) error {
		if visitError != nil {
			discovered.Issues = append(discovered.Issues, FileIssue{Path: visitedPath, Reason: visitError.Error()})
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if directoryEntry.IsDir() {
			return nil
		}
		if normalize.IsConfigPath(visitedPath) {
			discovered.Files = append(discovered.Files, visitedPath)
		}
		return nil
	})
	if walkError != nil {
		return Result{}, fmt.Errorf(rootNotFoundTemplateConstant, root, walkError)
	}

	sort.Strings(discovered.Files)
	return discovered, nil
}
