package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/normalize"
)

const (
	yamlDocumentConstant = `database:
  host: localhost
  port: 5432
  replicas:
    - name: primary
    - name: standby
debug: false
timeout: 2.5
`
	jsonDocumentConstant = `{
  "database": {"host": "localhost", "port": 5432},
  "features": ["diff", "policy"],
  "debug": false
}`
	tomlDocumentConstant = `title = "app"
debug = false

[database]
host = "localhost"
port = 5432

[[servers]]
name = "alpha"

[[servers]]
name = "beta"
`
)

func newNormalizer() *normalize.Normalizer {
	return normalize.NewNormalizer(canonical.DefaultMaximumFlattenDepth)
}

func requireRendered(testInstance *testing.T, mapping canonical.Mapping, keyPath string, expected string) {
	testInstance.Helper()
	value, present := mapping[keyPath]
	require.True(testInstance, present, keyPath)
	require.Equal(testInstance, expected, canonical.Render(value))
}

func TestNormalizeYAMLDocument(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte(yamlDocumentConstant), normalize.FormatYAML)
	require.NoError(testInstance, normalizeError)

	requireRendered(testInstance, mapping, "database.host", "localhost")
	requireRendered(testInstance, mapping, "database.port", "5432")
	requireRendered(testInstance, mapping, "database.replicas.0.name", "primary")
	requireRendered(testInstance, mapping, "database.replicas.1.name", "standby")
	requireRendered(testInstance, mapping, "timeout", "2.5")

	debugValue := mapping["debug"]
	require.Equal(testInstance, canonical.KindBool, debugValue.Kind())
	require.False(testInstance, debugValue.BoolValue())
}

func TestNormalizeJSONDocument(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte(jsonDocumentConstant), normalize.FormatJSON)
	require.NoError(testInstance, normalizeError)

	requireRendered(testInstance, mapping, "database.host", "localhost")
	requireRendered(testInstance, mapping, "database.port", "5432")
	requireRendered(testInstance, mapping, "features.0", "diff")
	requireRendered(testInstance, mapping, "features.1", "policy")
	require.Equal(testInstance, canonical.KindBool, mapping["debug"].Kind())
}

func TestNormalizeTOMLDocument(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte(tomlDocumentConstant), normalize.FormatTOML)
	require.NoError(testInstance, normalizeError)

	requireRendered(testInstance, mapping, "title", "app")
	requireRendered(testInstance, mapping, "database.host", "localhost")
	requireRendered(testInstance, mapping, "database.port", "5432")
	requireRendered(testInstance, mapping, "servers.0.name", "alpha")
	requireRendered(testInstance, mapping, "servers.1.name", "beta")
}

func TestNormalizeKeepsTOMLFloatsAsWrittenDecimals(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte("ratio = 1.1\n"), normalize.FormatTOML)
	require.NoError(testInstance, normalizeError)

	requireRendered(testInstance, mapping, "ratio", "1.1")
	expectedRatio, ratioError := canonical.Number("1.1")
	require.NoError(testInstance, ratioError)
	require.True(testInstance, canonical.Equal(mapping["ratio"], expectedRatio))
}

func TestEquivalentDocumentsConvergeAcrossFormats(testInstance *testing.T) {
	yamlMapping, yamlError := newNormalizer().Normalize([]byte("database:\n  host: localhost\n  port: 5432\n"), normalize.FormatYAML)
	require.NoError(testInstance, yamlError)
	jsonMapping, jsonError := newNormalizer().Normalize([]byte(`{"database": {"host": "localhost", "port": 5432}}`), normalize.FormatJSON)
	require.NoError(testInstance, jsonError)
	tomlMapping, tomlError := newNormalizer().Normalize([]byte("[database]\nhost = \"localhost\"\nport = 5432\n"), normalize.FormatTOML)
	require.NoError(testInstance, tomlError)

	require.Equal(testInstance, yamlMapping.SortedPaths(), jsonMapping.SortedPaths())
	require.Equal(testInstance, yamlMapping.SortedPaths(), tomlMapping.SortedPaths())
	for _, keyPath := range yamlMapping.SortedPaths() {
		require.True(testInstance, canonical.Equal(yamlMapping[keyPath], jsonMapping[keyPath]), keyPath)
		require.True(testInstance, canonical.Equal(yamlMapping[keyPath], tomlMapping[keyPath]), keyPath)
	}
}

func TestNormalizeResolvesYAMLAnchors(testInstance *testing.T) {
	document := `defaults: &defaults
  retries: 3
service:
  <<: *defaults
  name: api
`
	mapping, normalizeError := newNormalizer().Normalize([]byte(document), normalize.FormatYAML)
	require.NoError(testInstance, normalizeError)
	requireRendered(testInstance, mapping, "service.name", "api")
	requireRendered(testInstance, mapping, "defaults.retries", "3")
}

func TestNormalizeRejectsDuplicateKeys(testInstance *testing.T) {
	testCases := []struct {
		name    string
		content string
		format  normalize.Format
	}{
		{name: "yaml duplicate", content: "host: a\nhost: b\n", format: normalize.FormatYAML},
		{name: "json duplicate", content: `{"host": "a", "host": "b"}`, format: normalize.FormatJSON},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, normalizeError := newNormalizer().Normalize([]byte(testCase.content), testCase.format)
			require.Error(subtest, normalizeError)

			var parseFailure *normalize.ParseError
			require.ErrorAs(subtest, normalizeError, &parseFailure)
			require.Contains(subtest, parseFailure.Reason, "duplicate")
		})
	}
}

func TestNormalizeReportsParseErrorWithLocation(testInstance *testing.T) {
	testCases := []struct {
		name    string
		content string
		format  normalize.Format
	}{
		{name: "malformed yaml", content: "key: [unclosed\n", format: normalize.FormatYAML},
		{name: "malformed json", content: `{"key": `, format: normalize.FormatJSON},
		{name: "malformed toml", content: "key = \n", format: normalize.FormatTOML},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, normalizeError := newNormalizer().Normalize([]byte(testCase.content), testCase.format)
			require.Error(subtest, normalizeError)

			var parseFailure *normalize.ParseError
			require.ErrorAs(subtest, normalizeError, &parseFailure)
			require.Equal(subtest, testCase.format, parseFailure.Format)
		})
	}
}

func TestNormalizeDegradesTOMLDatetimesToStrings(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte("deployed = 1979-05-27T07:32:00Z\n"), normalize.FormatTOML)
	require.NoError(testInstance, normalizeError)

	deployedValue, present := mapping["deployed"]
	require.True(testInstance, present)
	require.Equal(testInstance, canonical.KindString, deployedValue.Kind())
}

func TestNormalizeHonorsDepthBound(testInstance *testing.T) {
	document := `a:
  b:
    c:
      d:
        e: 1
`
	_, normalizeError := normalize.NewNormalizer(2).Normalize([]byte(document), normalize.FormatYAML)
	require.Error(testInstance, normalizeError)

	var parseFailure *normalize.ParseError
	require.ErrorAs(testInstance, normalizeError, &parseFailure)
}

func TestNormalizeFileDetectsFormatByExtension(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().NormalizeFile("service.json", []byte(`{"enabled": true}`))
	require.NoError(testInstance, normalizeError)
	require.Equal(testInstance, canonical.KindBool, mapping["enabled"].Kind())

	_, unsupportedError := newNormalizer().NormalizeFile("service.ini", []byte("a=b"))
	require.Error(testInstance, unsupportedError)
}

func TestNormalizeEmptyYAMLDocument(testInstance *testing.T) {
	mapping, normalizeError := newNormalizer().Normalize([]byte(""), normalize.FormatYAML)
	require.NoError(testInstance, normalizeError)
	require.Len(testInstance, mapping, 1)

	rootValue, present := mapping[""]
	require.True(testInstance, present)
	require.Equal(testInstance, canonical.KindMap, rootValue.Kind())
}
