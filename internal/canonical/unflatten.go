package canonical

import (
	"sort"
	"strconv"
	"strings"
)

// Subtree rebuilds the container value rooted at prefix from the flattened
// entries nested beneath it. Map key order from the source document is not
// recoverable from a mapping, so keys come back lexicographically sorted;
// list elements come back in index order. The second result reports whether
// any entry was found under the prefix.
func Subtree(mapping Mapping, prefix string) (Value, bool) {
	descendantPrefix := prefix + pathSegmentSeparatorConstant
	relativeEntries := make(map[string]Value)
	for entryPath, entryValue := range mapping {
		if strings.HasPrefix(entryPath, descendantPrefix) {
			relativeEntries[entryPath[len(descendantPrefix):]] = entryValue
		}
	}
	if len(relativeEntries) == 0 {
		return Value{}, false
	}
	return rebuildContainer(relativeEntries), true
}

func rebuildContainer(relativeEntries map[string]Value) Value {
	directLeaves := make(map[string]Value)
	childGroups := make(map[string]map[string]Value)

	for relativePath, entryValue := range relativeEntries {
		separatorIndex := strings.Index(relativePath, pathSegmentSeparatorConstant)
		if separatorIndex < 0 {
			directLeaves[relativePath] = entryValue
			continue
		}
		segment := relativePath[:separatorIndex]
		remainder := relativePath[separatorIndex+1:]
		if childGroups[segment] == nil {
			childGroups[segment] = make(map[string]Value)
		}
		childGroups[segment][remainder] = entryValue
	}

	segments := make([]string, 0, len(directLeaves)+len(childGroups))
	for segment := range directLeaves {
		segments = append(segments, segment)
	}
	for segment := range childGroups {
		if _, alreadyListed := directLeaves[segment]; !alreadyListed {
			segments = append(segments, segment)
		}
	}

	if allNumericSegments(segments) {
		sort.Slice(segments, func(firstIndex, secondIndex int) bool {
			firstNumber, _ := strconv.Atoi(segments[firstIndex])
			secondNumber, _ := strconv.Atoi(segments[secondIndex])
			return firstNumber < secondNumber
		})
		elements := make([]Value, 0, len(segments))
		for _, segment := range segments {
			elements = append(elements, segmentValue(segment, directLeaves, childGroups))
		}
		return List(elements)
	}

	sort.Strings(segments)
	entries := make([]MapEntry, 0, len(segments))
	for _, segment := range segments {
		entries = append(entries, MapEntry{Key: segment, Value: segmentValue(segment, directLeaves, childGroups)})
	}
	return Map(entries)
}

func segmentValue(segment string, directLeaves map[string]Value, childGroups map[string]map[string]Value) Value {
	if leafValue, isLeaf := directLeaves[segment]; isLeaf {
		return leafValue
	}
	return rebuildContainer(childGroups[segment])
}

func allNumericSegments(segments []string) bool {
	if len(segments) == 0 {
		return false
	}
	for _, segment := range segments {
		if _, conversionError := strconv.Atoi(segment); conversionError != nil {
			return false
		}
	}
	return true
}
