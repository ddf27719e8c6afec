package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/policy"
)

const validPolicyDocumentConstant = `
name: production-baseline
description: Baseline checks for production configuration.
rules:
  - id: require-tls
    description: TLS must be configured.
    severity: critical
    check:
      type: required_key
      key: server.tls.certificate
  - id: no-debug
    pattern: "*.yaml"
    check:
      type: forbidden_value
      key: server.debug
      value: true
`

func TestParsePolicyAcceptsValidDocument(testInstance *testing.T) {
	parsedPolicy, parseError := policy.ParsePolicy([]byte(validPolicyDocumentConstant))

	require.NoError(testInstance, parseError)
	require.Equal(testInstance, "production-baseline", parsedPolicy.Name)
	require.Len(testInstance, parsedPolicy.Rules, 2)
	require.Equal(testInstance, "require-tls", parsedPolicy.Rules[0].ID)
	require.Equal(testInstance, policy.SeverityCritical, parsedPolicy.Rules[0].Severity)
	require.Equal(testInstance, policy.CheckRequiredKey, parsedPolicy.Rules[0].Check.Kind)
	require.Equal(testInstance, "*.yaml", parsedPolicy.Rules[1].FileGlob)
}

func TestParsePolicyDefaultsSeverityToMedium(testInstance *testing.T) {
	parsedPolicy, parseError := policy.ParsePolicy([]byte(validPolicyDocumentConstant))

	require.NoError(testInstance, parseError)
	require.Equal(testInstance, policy.SeverityMedium, parsedPolicy.Rules[1].Severity)
}

func TestParsePolicyDecodesScalarForbiddenValues(testInstance *testing.T) {
	testCases := []struct {
		name             string
		valueLiteral     string
		expectedRendered string
	}{
		{name: "boolean", valueLiteral: "true", expectedRendered: "true"},
		{name: "integer", valueLiteral: "8080", expectedRendered: "8080"},
		{name: "float", valueLiteral: "1.5", expectedRendered: "1.5"},
		{name: "string", valueLiteral: "\"disabled\"", expectedRendered: "disabled"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			policyDocument := "name: p\nrules:\n  - id: r1\n    check:\n      type: forbidden_value\n      key: server.mode\n      value: " + testCase.valueLiteral + "\n"

			parsedPolicy, parseError := policy.ParsePolicy([]byte(policyDocument))

			require.NoError(subtest, parseError)
			require.Len(subtest, parsedPolicy.Rules, 1)
			require.Equal(subtest, testCase.expectedRendered, canonical.Render(parsedPolicy.Rules[0].Check.Value))
		})
	}
}

func TestParsePolicyRejectsInvalidDocuments(testInstance *testing.T) {
	testCases := []struct {
		name            string
		policyDocument  string
		expectedMessage string
	}{
		{
			name:            "missing_name",
			policyDocument:  "rules:\n  - id: r1\n    check:\n      type: required_key\n      key: a\n",
			expectedMessage: "policy name is required",
		},
		{
			name:            "empty_rules",
			policyDocument:  "name: empty\nrules: []\n",
			expectedMessage: "at least one rule",
		},
		{
			name:            "missing_rule_id",
			policyDocument:  "name: p\nrules:\n  - check:\n      type: required_key\n      key: a\n",
			expectedMessage: "rule id is required",
		},
		{
			name:            "duplicate_rule_id",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: required_key\n      key: a\n  - id: r1\n    check:\n      type: required_key\n      key: b\n",
			expectedMessage: "duplicate rule id",
		},
		{
			name:            "unknown_severity",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    severity: fatal\n    check:\n      type: required_key\n      key: a\n",
			expectedMessage: "unknown severity",
		},
		{
			name:            "unknown_check_type",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: must_exist\n      key: a\n",
			expectedMessage: "unknown check type",
		},
		{
			name:            "missing_check_key",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: required_key\n",
			expectedMessage: "check key is required",
		},
		{
			name:            "invalid_regex",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: value_match\n      key: a\n      regex: \"[unclosed\"\n",
			expectedMessage: "invalid regex",
		},
		{
			name:            "value_match_without_regex",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: value_match\n      key: a\n",
			expectedMessage: "requires a regex",
		},
		{
			name:            "empty_enum",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: value_enum\n      key: a\n      values: []\n",
			expectedMessage: "at least one allowed value",
		},
		{
			name:            "forbidden_value_without_value",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    check:\n      type: forbidden_value\n      key: a\n",
			expectedMessage: "value is required",
		},
		{
			name:            "invalid_glob",
			policyDocument:  "name: p\nrules:\n  - id: r1\n    pattern: \"[\"\n    check:\n      type: required_key\n      key: a\n",
			expectedMessage: "invalid file pattern",
		},
		{
			name:            "malformed_yaml",
			policyDocument:  "name: p\nrules: [unterminated",
			expectedMessage: "cannot parse policy document",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			parsedPolicy, parseError := policy.ParsePolicy([]byte(testCase.policyDocument))

			require.Nil(subtest, parsedPolicy)
			var policyError *policy.PolicyError
			require.ErrorAs(subtest, parseError, &policyError)
			require.Contains(subtest, parseError.Error(), testCase.expectedMessage)
		})
	}
}

func TestParsePolicyIncludesRuleIDInErrorMessage(testInstance *testing.T) {
	policyDocument := "name: p\nrules:\n  - id: tls-cipher\n    severity: enormous\n    check:\n      type: required_key\n      key: a\n"

	_, parseError := policy.ParsePolicy([]byte(policyDocument))

	require.Error(testInstance, parseError)
	require.Contains(testInstance, parseError.Error(), "tls-cipher")
}

func TestLoadPolicyReadsDocumentFromDisk(testInstance *testing.T) {
	policyPath := filepath.Join(testInstance.TempDir(), "policy.yaml")
	require.NoError(testInstance, os.WriteFile(policyPath, []byte(validPolicyDocumentConstant), 0o600))

	loadedPolicy, loadError := policy.LoadPolicy(policyPath)

	require.NoError(testInstance, loadError)
	require.Len(testInstance, loadedPolicy.Rules, 2)
}

func TestLoadPolicyReportsMissingFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), "absent.yaml")

	loadedPolicy, loadError := policy.LoadPolicy(missingPath)

	require.Nil(testInstance, loadedPolicy)
	var policyError *policy.PolicyError
	require.ErrorAs(testInstance, loadError, &policyError)
}
