package canonical

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	pathSegmentSeparatorConstant   = "."
	depthExceededTemplateConstant  = "nesting depth %d exceeds the configured maximum of %d at %q"
	rootKeyPathConstant            = ""
	DefaultMaximumFlattenDepth     = 64
	initialFlattenDepthConstant    = 0
	firstListElementIndexConstant  = 0
	flattenedMappingSizeHintFactor = 8
)

// Entry pairs one dotted key path with the leaf value reachable at that path.
type Entry struct {
	Path  string
	Value Value
}

// Mapping is the flattened leaf-level view of one configuration document,
// keyed by dotted key path. Keys are unique within one document.
type Mapping map[string]Value

// Flatten converts a canonical value tree into its flattened mapping. List
// elements receive zero-based numeric path segments, and empty containers are
// represented by a single entry holding the empty container itself so their
// presence stays diff-visible. Nesting beyond maximumDepth fails rather than
// recursing further.
func Flatten(root Value, maximumDepth int) (Mapping, error) {
	if maximumDepth <= 0 {
		maximumDepth = DefaultMaximumFlattenDepth
	}

	mapping := make(Mapping, flattenedMappingSizeHintFactor)
	if flattenError := flattenInto(mapping, rootKeyPathConstant, root, initialFlattenDepthConstant, maximumDepth); flattenError != nil {
		return nil, flattenError
	}
	return mapping, nil
}

func flattenInto(mapping Mapping, keyPath string, value Value, currentDepth int, maximumDepth int) error {
	if currentDepth > maximumDepth {
		return fmt.Errorf(depthExceededTemplateConstant, currentDepth, maximumDepth, keyPath)
	}

	switch value.Kind() {
	case KindMap:
		entries := value.MapEntries()
		if len(entries) == 0 {
			mapping[keyPath] = value
			return nil
		}
		for _, entry := range entries {
			childPath := joinKeyPath(keyPath, entry.Key)
			if childError := flattenInto(mapping, childPath, entry.Value, currentDepth+1, maximumDepth); childError != nil {
				return childError
			}
		}
		return nil
	case KindList:
		elements := value.ListElements()
		if len(elements) == 0 {
			mapping[keyPath] = value
			return nil
		}
		for elementIndex := firstListElementIndexConstant; elementIndex < len(elements); elementIndex++ {
			childPath := joinKeyPath(keyPath, strconv.Itoa(elementIndex))
			if childError := flattenInto(mapping, childPath, elements[elementIndex], currentDepth+1, maximumDepth); childError != nil {
				return childError
			}
		}
		return nil
	default:
		mapping[keyPath] = value
		return nil
	}
}

func joinKeyPath(prefix string, segment string) string {
	if len(prefix) == 0 {
		return segment
	}
	return prefix + pathSegmentSeparatorConstant + segment
}

// SortedPaths returns every key path in lexicographic order, giving callers a
// deterministic iteration order independent of map internals.
func (mapping Mapping) SortedPaths() []string {
	paths := make([]string, 0, len(mapping))
	for keyPath := range mapping {
		paths = append(paths, keyPath)
	}
	sort.Strings(paths)
	return paths
}

// HasKeyOrDescendant reports whether the key path itself is present or any
// entry is nested beneath it, which is how existence checks treat container
// keys that only appear through their leaves.
func (mapping Mapping) HasKeyOrDescendant(keyPath string) bool {
	if _, exists := mapping[keyPath]; exists {
		return true
	}
	descendantPrefix := keyPath + pathSegmentSeparatorConstant
	for candidatePath := range mapping {
		if len(candidatePath) > len(descendantPrefix) && candidatePath[:len(descendantPrefix)] == descendantPrefix {
			return true
		}
	}
	return false
}
