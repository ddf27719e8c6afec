package canonical_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/canonical"
)

func mustNumber(testInstance *testing.T, decimalText string) canonical.Value {
	testInstance.Helper()
	value, numberError := canonical.Number(decimalText)
	require.NoError(testInstance, numberError)
	return value
}

func TestEqualComparesNumbersByValue(testInstance *testing.T) {
	testCases := []struct {
		name          string
		first         canonical.Value
		second        canonical.Value
		expectedEqual bool
	}{
		{name: "integer and trailing-zero float", first: mustNumber(testInstance, "1"), second: mustNumber(testInstance, "1.0"), expectedEqual: true},
		{name: "different magnitudes", first: mustNumber(testInstance, "20"), second: mustNumber(testInstance, "21"), expectedEqual: false},
		{name: "number versus numeric string", first: mustNumber(testInstance, "20"), second: canonical.String("20"), expectedEqual: false},
		{name: "identical strings", first: canonical.String("localhost"), second: canonical.String("localhost"), expectedEqual: true},
		{name: "bool versus string", first: canonical.Bool(true), second: canonical.String("true"), expectedEqual: false},
		{name: "null equals null", first: canonical.Null(), second: canonical.Null(), expectedEqual: true},
		{
			name:          "lists compare element-wise",
			first:         canonical.List([]canonical.Value{mustNumber(testInstance, "1"), mustNumber(testInstance, "2")}),
			second:        canonical.List([]canonical.Value{mustNumber(testInstance, "1.0"), mustNumber(testInstance, "2.0")}),
			expectedEqual: true,
		},
		{
			name: "maps compare keys in order",
			first: canonical.Map([]canonical.MapEntry{
				{Key: "host", Value: canonical.String("localhost")},
			}),
			second: canonical.Map([]canonical.MapEntry{
				{Key: "host", Value: canonical.String("localhost")},
			}),
			expectedEqual: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedEqual, canonical.Equal(testCase.first, testCase.second))
		})
	}
}

func TestNumberRejectsNonDecimalText(testInstance *testing.T) {
	_, numberError := canonical.Number("not-a-number")
	require.Error(testInstance, numberError)
}

func TestNumberFromFloatUsesShortestDecimal(testInstance *testing.T) {
	testCases := []struct {
		name            string
		floatValue      float64
		expectedLiteral string
	}{
		{name: "fraction without exact binary form", floatValue: 1.1, expectedLiteral: "1.1"},
		{name: "exact binary fraction", floatValue: 0.5, expectedLiteral: "0.5"},
		{name: "whole number", floatValue: 3, expectedLiteral: "3"},
		{name: "negative fraction", floatValue: -2.25, expectedLiteral: "-2.25"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			floatNumber := canonical.NumberFromFloat(testCase.floatValue)
			require.Equal(subtest, testCase.expectedLiteral, canonical.Render(floatNumber))
			require.True(subtest, canonical.Equal(floatNumber, mustNumber(subtest, testCase.expectedLiteral)))
		})
	}
}

func TestRenderNormalizesValues(testInstance *testing.T) {
	testCases := []struct {
		name     string
		value    canonical.Value
		expected string
	}{
		{name: "null", value: canonical.Null(), expected: "null"},
		{name: "bool", value: canonical.Bool(true), expected: "true"},
		{name: "integer", value: mustNumber(testInstance, "20"), expected: "20"},
		{name: "float with trailing zero", value: mustNumber(testInstance, "1.50"), expected: "1.5"},
		{name: "string", value: canonical.String("db.internal"), expected: "db.internal"},
		{name: "empty list", value: canonical.List(nil), expected: "[]"},
		{name: "empty map", value: canonical.Map(nil), expected: "{}"},
		{
			name: "nested container",
			value: canonical.Map([]canonical.MapEntry{
				{Key: "hosts", Value: canonical.List([]canonical.Value{canonical.String("a"), canonical.String("b")})},
			}),
			expected: "{hosts: [a, b]}",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, canonical.Render(testCase.value))
		})
	}
}

func TestKindStringNamesEveryVariant(testInstance *testing.T) {
	require.Equal(testInstance, "number", canonical.KindNumber.String())
	require.Equal(testInstance, "map", canonical.KindMap.String())
	require.True(testInstance, canonical.Map(nil).IsContainer())
	require.False(testInstance, canonical.String("leaf").IsContainer())
}
