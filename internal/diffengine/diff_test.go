package diffengine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/diffengine"
)

const (
	databaseHostPathConstant     = "database.host"
	databasePoolSizePathConstant = "database.pool_size"
	featureFlagPathConstant      = "features.dark_mode"
	timeoutPathConstant          = "server.timeout"
)

func flattenDocument(testInstance *testing.T, root canonical.Value) canonical.Mapping {
	testInstance.Helper()

	mapping, flattenError := canonical.Flatten(root, canonical.DefaultMaximumFlattenDepth)
	require.NoError(testInstance, flattenError)
	return mapping
}

func TestDiffClassifiesKeyLevelChanges(testInstance *testing.T) {
	oldMapping := canonical.Mapping{
		databaseHostPathConstant: canonical.String("localhost"),
	}
	newMapping := canonical.Mapping{
		databaseHostPathConstant:     canonical.String("db.prod.internal"),
		databasePoolSizePathConstant: canonical.NumberFromInt(20),
	}

	changes := diffengine.Diff(oldMapping, newMapping)

	require.Len(testInstance, changes, 2)
	require.Equal(testInstance, databaseHostPathConstant, changes[0].Path)
	require.Equal(testInstance, diffengine.ChangeKindChanged, changes[0].Kind)
	require.Equal(testInstance, "localhost", changes[0].OldValue.StringValue())
	require.Equal(testInstance, "db.prod.internal", changes[0].NewValue.StringValue())
	require.Equal(testInstance, databasePoolSizePathConstant, changes[1].Path)
	require.Equal(testInstance, diffengine.ChangeKindAdded, changes[1].Kind)
	require.Nil(testInstance, changes[1].OldValue)
	require.Equal(testInstance, "20", canonical.Render(*changes[1].NewValue))
}

func TestDiffTreatsNumericRepresentationsAsEqual(testInstance *testing.T) {
	integerNumber, integerError := canonical.Number("1")
	require.NoError(testInstance, integerError)
	decimalNumber, decimalError := canonical.Number("1.0")
	require.NoError(testInstance, decimalError)

	oldMapping := canonical.Mapping{timeoutPathConstant: integerNumber}
	newMapping := canonical.Mapping{timeoutPathConstant: decimalNumber}

	require.Empty(testInstance, diffengine.Diff(oldMapping, newMapping))
}

func TestDiffDistinguishesStringFromNumber(testInstance *testing.T) {
	oldMapping := canonical.Mapping{timeoutPathConstant: canonical.String("20")}
	newMapping := canonical.Mapping{timeoutPathConstant: canonical.NumberFromInt(20)}

	changes := diffengine.Diff(oldMapping, newMapping)

	require.Len(testInstance, changes, 1)
	require.Equal(testInstance, diffengine.ChangeKindChanged, changes[0].Kind)
}

func TestDiffOfIdenticalMappingsIsEmpty(testInstance *testing.T) {
	document := canonical.Map([]canonical.MapEntry{
		{Key: "server", Value: canonical.Map([]canonical.MapEntry{
			{Key: "hosts", Value: canonical.List([]canonical.Value{
				canonical.String("alpha"),
				canonical.String("beta"),
			})},
			{Key: "timeout", Value: canonical.NumberFromInt(30)},
		})},
	})
	mapping := flattenDocument(testInstance, document)

	require.Empty(testInstance, diffengine.Diff(mapping, mapping))
}

func TestDiffIsSymmetricUnderSwappedArguments(testInstance *testing.T) {
	oldMapping := canonical.Mapping{
		databaseHostPathConstant: canonical.String("localhost"),
		featureFlagPathConstant:  canonical.Bool(true),
	}
	newMapping := canonical.Mapping{
		databaseHostPathConstant: canonical.String("db.prod.internal"),
		timeoutPathConstant:      canonical.NumberFromInt(30),
	}

	forwardChanges := diffengine.Diff(oldMapping, newMapping)
	reverseChanges := diffengine.Diff(newMapping, oldMapping)

	forwardKinds := map[string]diffengine.ChangeKind{}
	for _, change := range forwardChanges {
		forwardKinds[change.Path] = change.Kind
	}
	require.Equal(testInstance, diffengine.ChangeKindChanged, forwardKinds[databaseHostPathConstant])
	require.Equal(testInstance, diffengine.ChangeKindRemoved, forwardKinds[featureFlagPathConstant])
	require.Equal(testInstance, diffengine.ChangeKindAdded, forwardKinds[timeoutPathConstant])

	reverseKinds := map[string]diffengine.ChangeKind{}
	for _, change := range reverseChanges {
		reverseKinds[change.Path] = change.Kind
	}
	require.Equal(testInstance, diffengine.ChangeKindChanged, reverseKinds[databaseHostPathConstant])
	require.Equal(testInstance, diffengine.ChangeKindAdded, reverseKinds[featureFlagPathConstant])
	require.Equal(testInstance, diffengine.ChangeKindRemoved, reverseKinds[timeoutPathConstant])
}

func TestDiffCollapsesScalarToContainerTransition(testInstance *testing.T) {
	oldDocument := canonical.Map([]canonical.MapEntry{
		{Key: "database", Value: canonical.Map([]canonical.MapEntry{
			{Key: "host", Value: canonical.String("localhost")},
		})},
	})
	newDocument := canonical.Map([]canonical.MapEntry{
		{Key: "database", Value: canonical.Map([]canonical.MapEntry{
			{Key: "host", Value: canonical.Map([]canonical.MapEntry{
				{Key: "primary", Value: canonical.String("db1.internal")},
				{Key: "replica", Value: canonical.String("db2.internal")},
			})},
		})},
	})

	changes := diffengine.Diff(
		flattenDocument(testInstance, oldDocument),
		flattenDocument(testInstance, newDocument),
	)

	require.Len(testInstance, changes, 1)
	require.Equal(testInstance, databaseHostPathConstant, changes[0].Path)
	require.Equal(testInstance, diffengine.ChangeKindChanged, changes[0].Kind)
	require.Equal(testInstance, "localhost", changes[0].OldValue.StringValue())
	require.Equal(testInstance, canonical.KindMap, changes[0].NewValue.Kind())
	require.Equal(testInstance, "{primary: db1.internal, replica: db2.internal}", canonical.Render(*changes[0].NewValue))
}

func TestDiffCollapsesContainerToScalarTransition(testInstance *testing.T) {
	oldDocument := canonical.Map([]canonical.MapEntry{
		{Key: "server", Value: canonical.Map([]canonical.MapEntry{
			{Key: "hosts", Value: canonical.List([]canonical.Value{
				canonical.String("alpha"),
				canonical.String("beta"),
			})},
		})},
	})
	newDocument := canonical.Map([]canonical.MapEntry{
		{Key: "server", Value: canonical.Map([]canonical.MapEntry{
			{Key: "hosts", Value: canonical.String("alpha")},
		})},
	})

	changes := diffengine.Diff(
		flattenDocument(testInstance, oldDocument),
		flattenDocument(testInstance, newDocument),
	)

	require.Len(testInstance, changes, 1)
	require.Equal(testInstance, "server.hosts", changes[0].Path)
	require.Equal(testInstance, diffengine.ChangeKindChanged, changes[0].Kind)
	require.Equal(testInstance, canonical.KindList, changes[0].OldValue.Kind())
	require.Equal(testInstance, "alpha", changes[0].NewValue.StringValue())
}

func TestDiffOrdersChangesByKeyPath(testInstance *testing.T) {
	oldMapping := canonical.Mapping{
		"zeta.value":  canonical.NumberFromInt(1),
		"alpha.value": canonical.NumberFromInt(2),
	}
	newMapping := canonical.Mapping{
		"zeta.value":  canonical.NumberFromInt(3),
		"alpha.value": canonical.NumberFromInt(4),
		"mid.value":   canonical.NumberFromInt(5),
	}

	changes := diffengine.Diff(oldMapping, newMapping)

	require.Len(testInstance, changes, 3)
	require.Equal(testInstance, "alpha.value", changes[0].Path)
	require.Equal(testInstance, "mid.value", changes[1].Path)
	require.Equal(testInstance, "zeta.value", changes[2].Path)
}

func TestSummarizeCountsChangesByKind(testInstance *testing.T) {
	changes := []diffengine.Change{
		{Path: "a", Kind: diffengine.ChangeKindAdded},
		{Path: "b", Kind: diffengine.ChangeKindAdded},
		{Path: "c", Kind: diffengine.ChangeKindRemoved},
		{Path: "d", Kind: diffengine.ChangeKindChanged},
	}

	summary := diffengine.Summarize(changes)

	require.Equal(testInstance, diffengine.Summary{Added: 2, Removed: 1, Changed: 1}, summary)
}
