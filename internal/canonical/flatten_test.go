package canonical_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/canonical"
)

func buildNestedDocument(testInstance *testing.T) canonical.Value {
	return canonical.Map([]canonical.MapEntry{
		{Key: "database", Value: canonical.Map([]canonical.MapEntry{
			{Key: "hosts", Value: canonical.List([]canonical.Value{
				canonical.Map([]canonical.MapEntry{{Key: "port", Value: mustNumber(testInstance, "5432")}}),
				canonical.Map([]canonical.MapEntry{{Key: "port", Value: mustNumber(testInstance, "5433")}}),
			})},
			{Key: "name", Value: canonical.String("app")},
		})},
		{Key: "labels", Value: canonical.Map(nil)},
		{Key: "tags", Value: canonical.List(nil)},
	})
}

func TestFlattenProducesDottedLeafPaths(testInstance *testing.T) {
	mapping, flattenError := canonical.Flatten(buildNestedDocument(testInstance), canonical.DefaultMaximumFlattenDepth)
	require.NoError(testInstance, flattenError)

	require.Equal(testInstance, []string{
		"database.hosts.0.port",
		"database.hosts.1.port",
		"database.name",
		"labels",
		"tags",
	}, mapping.SortedPaths())

	require.Equal(testInstance, "5432", canonical.Render(mapping["database.hosts.0.port"]))
	require.Equal(testInstance, canonical.KindMap, mapping["labels"].Kind())
	require.Equal(testInstance, canonical.KindList, mapping["tags"].Kind())
}

func TestFlattenEnforcesMaximumDepth(testInstance *testing.T) {
	deeplyNested := canonical.String("leaf")
	for depth := 0; depth < 10; depth++ {
		deeplyNested = canonical.Map([]canonical.MapEntry{{Key: "level", Value: deeplyNested}})
	}

	_, flattenError := canonical.Flatten(deeplyNested, 3)
	require.Error(testInstance, flattenError)
	require.Contains(testInstance, flattenError.Error(), "exceeds the configured maximum")
}

func TestHasKeyOrDescendant(testInstance *testing.T) {
	mapping, flattenError := canonical.Flatten(buildNestedDocument(testInstance), canonical.DefaultMaximumFlattenDepth)
	require.NoError(testInstance, flattenError)

	require.True(testInstance, mapping.HasKeyOrDescendant("database"))
	require.True(testInstance, mapping.HasKeyOrDescendant("database.hosts"))
	require.True(testInstance, mapping.HasKeyOrDescendant("database.name"))
	require.False(testInstance, mapping.HasKeyOrDescendant("database.na"))
	require.False(testInstance, mapping.HasKeyOrDescendant("server"))
}

func TestSubtreeRebuildsContainers(testInstance *testing.T) {
	mapping, flattenError := canonical.Flatten(buildNestedDocument(testInstance), canonical.DefaultMaximumFlattenDepth)
	require.NoError(testInstance, flattenError)

	hostsSubtree, rebuilt := canonical.Subtree(mapping, "database.hosts")
	require.True(testInstance, rebuilt)
	require.Equal(testInstance, canonical.KindList, hostsSubtree.Kind())
	require.Len(testInstance, hostsSubtree.ListElements(), 2)
	require.Equal(testInstance, "{port: 5432}", canonical.Render(hostsSubtree.ListElements()[0]))

	databaseSubtree, databaseRebuilt := canonical.Subtree(mapping, "database")
	require.True(testInstance, databaseRebuilt)
	require.Equal(testInstance, canonical.KindMap, databaseSubtree.Kind())

	_, missingRebuilt := canonical.Subtree(mapping, "absent")
	require.False(testInstance, missingRebuilt)
}

func TestMappingRoundTripsThroughJSON(testInstance *testing.T) {
	mapping, flattenError := canonical.Flatten(buildNestedDocument(testInstance), canonical.DefaultMaximumFlattenDepth)
	require.NoError(testInstance, flattenError)

	encoded, encodeError := json.Marshal(mapping)
	require.NoError(testInstance, encodeError)

	var decoded canonical.Mapping
	require.NoError(testInstance, json.Unmarshal(encoded, &decoded))
	require.ElementsMatch(testInstance, mapping.SortedPaths(), decoded.SortedPaths())
	for _, keyPath := range mapping.SortedPaths() {
		require.True(testInstance, canonical.Equal(mapping[keyPath], decoded[keyPath]), keyPath)
	}
}
