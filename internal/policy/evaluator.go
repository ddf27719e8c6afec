package policy

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/temirov/configtrace/internal/canonical"
)

const (
	requiredKeyMissingTemplateConstant   = "required key %q is missing"
	forbiddenKeyPresentTemplateConstant  = "forbidden key %q is present"
	valueMatchFailureTemplateConstant    = "value %q for key %q does not match pattern %q"
	valueEnumFailureTemplateConstant     = "value %q for key %q is not in the allowed set [%s]"
	forbiddenValueFoundTemplateConstant  = "forbidden value %q found for key %q"
	allowedValueJoinSeparatorConstant    = ", "
	globPathSeparatorConstant            = "/"
	recursiveGlobMarkerConstant          = "**"
)

// Evaluate runs every applicable rule of the policy against one file's
// flattened mapping. Rules whose file glob does not match filePath are
// skipped entirely. Violations come back in rule order, so repeated
// evaluation of the same inputs is deterministic.
func Evaluate(evaluatedPolicy *Policy, mapping canonical.Mapping, filePath string) []Violation {
	violations := make([]Violation, 0)
	for ruleIndex := range evaluatedPolicy.Rules {
		rule := evaluatedPolicy.Rules[ruleIndex]
		if !ruleAppliesToFile(rule, filePath) {
			continue
		}
		if violation, violated := evaluateRule(rule, mapping, filePath); violated {
			violations = append(violations, violation)
		}
	}
	return violations
}

// ruleAppliesToFile matches path-shaped globs against the whole relative
// path and bare globs against the file name only.
func ruleAppliesToFile(rule Rule, filePath string) bool {
	if len(rule.FileGlob) == 0 {
		return true
	}

	normalizedPath := filepath.ToSlash(filePath)
	if strings.Contains(rule.FileGlob, globPathSeparatorConstant) || strings.Contains(rule.FileGlob, recursiveGlobMarkerConstant) {
		matched, _ := doublestar.Match(rule.FileGlob, normalizedPath)
		return matched
	}

	matched, _ := doublestar.Match(rule.FileGlob, filepath.Base(normalizedPath))
	return matched
}

func evaluateRule(rule Rule, mapping canonical.Mapping, filePath string) (Violation, bool) {
	switch rule.Check.Kind {
	case CheckRequiredKey:
		if !mapping.HasKeyOrDescendant(rule.Check.Key) {
			return buildViolation(rule, filePath, fmt.Sprintf(requiredKeyMissingTemplateConstant, rule.Check.Key)), true
		}
		return Violation{}, false
	case CheckForbiddenKey:
		if mapping.HasKeyOrDescendant(rule.Check.Key) {
			return buildViolation(rule, filePath, fmt.Sprintf(forbiddenKeyPresentTemplateConstant, rule.Check.Key)), true
		}
		return Violation{}, false
	case CheckValueMatch:
		entryValue, applicable := scalarEntry(mapping, rule.Check.Key)
		if !applicable {
			return Violation{}, false
		}
		renderedValue := canonical.Render(entryValue)
		if !rule.Check.Pattern.MatchString(renderedValue) {
			return buildViolation(rule, filePath, fmt.Sprintf(valueMatchFailureTemplateConstant, renderedValue, rule.Check.Key, rule.Check.PatternSource)), true
		}
		return Violation{}, false
	case CheckValueEnum:
		entryValue, applicable := scalarEntry(mapping, rule.Check.Key)
		if !applicable {
			return Violation{}, false
		}
		for _, allowedValue := range rule.Check.AllowedValues {
			if canonical.Equal(entryValue, allowedValue) {
				return Violation{}, false
			}
		}
		renderedAllowed := make([]string, 0, len(rule.Check.AllowedValues))
		for _, allowedValue := range rule.Check.AllowedValues {
			renderedAllowed = append(renderedAllowed, canonical.Render(allowedValue))
		}
		message := fmt.Sprintf(valueEnumFailureTemplateConstant, canonical.Render(entryValue), rule.Check.Key, strings.Join(renderedAllowed, allowedValueJoinSeparatorConstant))
		return buildViolation(rule, filePath, message), true
	case CheckForbiddenValue:
		entryValue, applicable := scalarEntry(mapping, rule.Check.Key)
		if !applicable {
			return Violation{}, false
		}
		if canonical.Equal(entryValue, rule.Check.Value) {
			return buildViolation(rule, filePath, fmt.Sprintf(forbiddenValueFoundTemplateConstant, canonical.Render(rule.Check.Value), rule.Check.Key)), true
		}
		return Violation{}, false
	default:
		return Violation{}, false
	}
}

// scalarEntry fetches the entry for value checks. Missing keys and container
// values are both not-applicable rather than violations; existence is the
// job of required_key and forbidden_key rules.
func scalarEntry(mapping canonical.Mapping, keyPath string) (canonical.Value, bool) {
	entryValue, exists := mapping[keyPath]
	if !exists {
		return canonical.Value{}, false
	}
	if entryValue.IsContainer() {
		return canonical.Value{}, false
	}
	return entryValue, true
}

func buildViolation(rule Rule, filePath string, message string) Violation {
	return Violation{
		RuleID:          rule.ID,
		RuleDescription: rule.Description,
		Severity:        rule.Severity,
		File:            filePath,
		KeyPath:         rule.Check.Key,
		Message:         message,
	}
}
