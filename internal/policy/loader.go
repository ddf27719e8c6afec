package policy

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/normalize"
)

const (
	policyReadFailureTemplateConstant        = "cannot read policy file %q: %s"
	policyDocumentFailureTemplateConstant    = "cannot parse policy document: %s"
	policyMissingNameReasonConstant          = "policy name is required"
	policyEmptyRulesReasonConstant           = "policy must contain at least one rule"
	policyMissingRuleIDReasonConstant        = "rule id is required"
	policyDuplicateRuleIDTemplateConstant    = "duplicate rule id %q"
	policyUnknownSeverityTemplateConstant    = "unknown severity %q"
	policyUnknownCheckKindTemplateConstant   = "unknown check type %q"
	policyMissingCheckKeyReasonConstant      = "check key is required"
	policyInvalidRegexTemplateConstant       = "invalid regex %q: %s"
	policyInvalidGlobTemplateConstant        = "invalid file pattern %q"
	policyMissingRegexReasonConstant         = "value_match requires a regex"
	policyEmptyEnumReasonConstant            = "value_enum requires at least one allowed value"
	policyScalarValueFailureTemplateConstant = "cannot interpret rule value: %s"
	defaultRuleSeverityConstant              = SeverityMedium
)

type policyDocument struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Rules       []ruleDocument `yaml:"rules"`
}

type ruleDocument struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	Severity    string        `yaml:"severity"`
	Pattern     string        `yaml:"pattern"`
	Check       checkDocument `yaml:"check"`
}

type checkDocument struct {
	Type   string      `yaml:"type"`
	Key    string      `yaml:"key"`
	Regex  string      `yaml:"regex"`
	Values []yaml.Node `yaml:"values"`
	Value  yaml.Node   `yaml:"value"`
}

// LoadPolicy reads and validates a policy document from disk. Any failure is
// a *PolicyError reported before evaluation begins.
func LoadPolicy(policyPath string) (*Policy, error) {
	content, readError := os.ReadFile(policyPath)
	if readError != nil {
		return nil, newPolicyError("", fmt.Sprintf(policyReadFailureTemplateConstant, policyPath, readError), readError)
	}
	return ParsePolicy(content)
}

// ParsePolicy validates raw policy YAML: the rule list must be non-empty,
// rule ids unique, severities and check kinds known, and every regex and file
// glob must compile.
func ParsePolicy(content []byte) (*Policy, error) {
	var document policyDocument
	if unmarshalError := yaml.Unmarshal(content, &document); unmarshalError != nil {
		return nil, newPolicyError("", fmt.Sprintf(policyDocumentFailureTemplateConstant, unmarshalError), unmarshalError)
	}

	if len(strings.TrimSpace(document.Name)) == 0 {
		return nil, newPolicyError("", policyMissingNameReasonConstant, nil)
	}
	if len(document.Rules) == 0 {
		return nil, newPolicyError("", policyEmptyRulesReasonConstant, nil)
	}

	seenRuleIDs := make(map[string]struct{}, len(document.Rules))
	rules := make([]Rule, 0, len(document.Rules))

	for _, rawRule := range document.Rules {
		ruleID := strings.TrimSpace(rawRule.ID)
		if len(ruleID) == 0 {
			return nil, newPolicyError("", policyMissingRuleIDReasonConstant, nil)
		}
		if _, duplicate := seenRuleIDs[ruleID]; duplicate {
			return nil, newPolicyError("", fmt.Sprintf(policyDuplicateRuleIDTemplateConstant, ruleID), nil)
		}
		seenRuleIDs[ruleID] = struct{}{}

		severity, severityError := resolveSeverity(rawRule.Severity)
		if severityError != nil {
			return nil, newPolicyError(ruleID, severityError.Error(), nil)
		}

		if len(rawRule.Pattern) > 0 {
			if !doublestar.ValidatePattern(rawRule.Pattern) {
				return nil, newPolicyError(ruleID, fmt.Sprintf(policyInvalidGlobTemplateConstant, rawRule.Pattern), nil)
			}
		}

		check, checkError := buildCheck(rawRule.Check)
		if checkError != nil {
			return nil, newPolicyError(ruleID, checkError.Error(), nil)
		}

		rules = append(rules, Rule{
			ID:          ruleID,
			Description: strings.TrimSpace(rawRule.Description),
			Severity:    severity,
			FileGlob:    rawRule.Pattern,
			Check:       check,
		})
	}

	return &Policy{
		Name:        strings.TrimSpace(document.Name),
		Description: strings.TrimSpace(document.Description),
		Rules:       rules,
	}, nil
}

func resolveSeverity(rawSeverity string) (Severity, error) {
	trimmedSeverity := strings.ToLower(strings.TrimSpace(rawSeverity))
	if len(trimmedSeverity) == 0 {
		return defaultRuleSeverityConstant, nil
	}
	severity := Severity(trimmedSeverity)
	if !severity.IsKnown() {
		return "", fmt.Errorf(policyUnknownSeverityTemplateConstant, rawSeverity)
	}
	return severity, nil
}

func buildCheck(rawCheck checkDocument) (Check, error) {
	checkKind := CheckKind(strings.TrimSpace(rawCheck.Type))
	if len(strings.TrimSpace(rawCheck.Key)) == 0 {
		return Check{}, fmt.Errorf(policyMissingCheckKeyReasonConstant)
	}

	check := Check{Kind: checkKind, Key: strings.TrimSpace(rawCheck.Key)}

	switch checkKind {
	case CheckRequiredKey, CheckForbiddenKey:
		return check, nil
	case CheckValueMatch:
		if len(rawCheck.Regex) == 0 {
			return Check{}, fmt.Errorf(policyMissingRegexReasonConstant)
		}
		compiledPattern, compileError := regexp.Compile(rawCheck.Regex)
		if compileError != nil {
			return Check{}, fmt.Errorf(policyInvalidRegexTemplateConstant, rawCheck.Regex, compileError)
		}
		check.Pattern = compiledPattern
		check.PatternSource = rawCheck.Regex
		return check, nil
	case CheckValueEnum:
		if len(rawCheck.Values) == 0 {
			return Check{}, fmt.Errorf(policyEmptyEnumReasonConstant)
		}
		allowedValues := make([]canonical.Value, 0, len(rawCheck.Values))
		for valueIndex := range rawCheck.Values {
			allowedValue, scalarError := normalize.ScalarFromYAMLNode(&rawCheck.Values[valueIndex])
			if scalarError != nil {
				return Check{}, fmt.Errorf(policyScalarValueFailureTemplateConstant, scalarError)
			}
			allowedValues = append(allowedValues, allowedValue)
		}
		check.AllowedValues = allowedValues
		return check, nil
	case CheckForbiddenValue:
		if rawCheck.Value.IsZero() {
			return Check{}, fmt.Errorf(policyScalarValueFailureTemplateConstant, "value is required")
		}
		forbiddenValue, scalarError := normalize.ScalarFromYAMLNode(&rawCheck.Value)
		if scalarError != nil {
			return Check{}, fmt.Errorf(policyScalarValueFailureTemplateConstant, scalarError)
		}
		check.Value = forbiddenValue
		return check, nil
	default:
		return Check{}, fmt.Errorf(policyUnknownCheckKindTemplateConstant, rawCheck.Type)
	}
}
