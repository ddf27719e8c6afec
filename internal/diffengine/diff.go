package diffengine

import (
	"sort"
	"strings"

	"github.com/temirov/configtrace/internal/canonical"
)

const (
	pathSeparatorConstant = "."
)

// ChangeKind classifies one key-level difference.
type ChangeKind string

// Supported change kinds.
const (
	ChangeKindAdded   ChangeKind = "added"
	ChangeKindRemoved ChangeKind = "removed"
	ChangeKindChanged ChangeKind = "changed"
)

// Change records one classified difference between two flattened mappings at
// one key path. A path appears in at most one Change per comparison.
type Change struct {
	Path     string           `json:"key_path"`
	Kind     ChangeKind       `json:"kind"`
	OldValue *canonical.Value `json:"old_value,omitempty"`
	NewValue *canonical.Value `json:"new_value,omitempty"`
}

// Diff compares two flattened mappings. Paths only in new yield Added, paths
// only in old yield Removed, paths in both with structurally unequal values
// yield Changed. A key that switches between scalar and container collapses
// into a single Changed at that key path, with the container side rebuilt
// from its flattened leaves; the leaves themselves are not reported again.
// Output is ordered lexicographically by key path.
func Diff(oldMapping canonical.Mapping, newMapping canonical.Mapping) []Change {
	changes := make([]Change, 0)
	consumedOldPaths := make(map[string]struct{})
	consumedNewPaths := make(map[string]struct{})

	oldPaths := oldMapping.SortedPaths()
	newPaths := newMapping.SortedPaths()

	// Scalar-to-container and container-to-scalar transitions are resolved
	// first so the affected leaves are excluded from the plain set
	// comparison below.
	for _, oldPath := range oldPaths {
		if _, existsInNew := newMapping[oldPath]; existsInNew {
			continue
		}
		newContainer, hasDescendants := canonical.Subtree(newMapping, oldPath)
		if !hasDescendants {
			continue
		}
		oldValue := oldMapping[oldPath]
		changes = append(changes, Change{
			Path:     oldPath,
			Kind:     ChangeKindChanged,
			OldValue: valueReference(oldValue),
			NewValue: valueReference(newContainer),
		})
		consumedOldPaths[oldPath] = struct{}{}
		markDescendantsConsumed(consumedNewPaths, newPaths, oldPath)
	}

	for _, newPath := range newPaths {
		if _, existsInOld := oldMapping[newPath]; existsInOld {
			continue
		}
		if _, alreadyConsumed := consumedNewPaths[newPath]; alreadyConsumed {
			continue
		}
		oldContainer, hasDescendants := canonical.Subtree(oldMapping, newPath)
		if !hasDescendants {
			continue
		}
		newValue := newMapping[newPath]
		changes = append(changes, Change{
			Path:     newPath,
			Kind:     ChangeKindChanged,
			OldValue: valueReference(oldContainer),
			NewValue: valueReference(newValue),
		})
		consumedNewPaths[newPath] = struct{}{}
		markDescendantsConsumed(consumedOldPaths, oldPaths, newPath)
	}

	for _, oldPath := range oldPaths {
		if _, consumed := consumedOldPaths[oldPath]; consumed {
			continue
		}
		oldValue := oldMapping[oldPath]
		newValue, existsInNew := newMapping[oldPath]
		if !existsInNew {
			changes = append(changes, Change{
				Path:     oldPath,
				Kind:     ChangeKindRemoved,
				OldValue: valueReference(oldValue),
			})
			continue
		}
		if !canonical.Equal(oldValue, newValue) {
			changes = append(changes, Change{
				Path:     oldPath,
				Kind:     ChangeKindChanged,
				OldValue: valueReference(oldValue),
				NewValue: valueReference(newValue),
			})
		}
	}

	for _, newPath := range newPaths {
		if _, consumed := consumedNewPaths[newPath]; consumed {
			continue
		}
		if _, existsInOld := oldMapping[newPath]; existsInOld {
			continue
		}
		newValue := newMapping[newPath]
		changes = append(changes, Change{
			Path:     newPath,
			Kind:     ChangeKindAdded,
			NewValue: valueReference(newValue),
		})
	}

	sort.Slice(changes, func(firstIndex int, secondIndex int) bool {
		return changes[firstIndex].Path < changes[secondIndex].Path
	})

	return changes
}

func markDescendantsConsumed(consumedPaths map[string]struct{}, candidatePaths []string, ancestorPath string) {
	descendantPrefix := ancestorPath + pathSeparatorConstant
	for _, candidatePath := range candidatePaths {
		if strings.HasPrefix(candidatePath, descendantPrefix) {
			consumedPaths[candidatePath] = struct{}{}
		}
	}
}

func valueReference(value canonical.Value) *canonical.Value {
	duplicated := value
	return &duplicated
}

// Summary tallies a change sequence by kind.
type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// Summarize counts the changes of each kind.
func Summarize(changes []Change) Summary {
	var summary Summary
	for _, change := range changes {
		switch change.Kind {
		case ChangeKindAdded:
			summary.Added++
		case ChangeKindRemoved:
			summary.Removed++
		case ChangeKindChanged:
			summary.Changed++
		}
	}
	return summary
}
