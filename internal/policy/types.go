package policy

import (
	"regexp"

	"github.com/temirov/configtrace/internal/canonical"
)

// Severity grades the impact of a rule violation.
type Severity string

// Supported severities, ordered from least to most impactful.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRankMapping = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns a comparable weight; unknown severities rank below low.
func (severity Severity) Rank() int {
	return severityRankMapping[severity]
}

// IsKnown reports whether the severity is one of the supported values.
func (severity Severity) IsKnown() bool {
	_, known := severityRankMapping[severity]
	return known
}

// CheckKind selects which existence or value check a rule performs. The set
// is closed; dispatch happens in a single exhaustive switch in the evaluator.
type CheckKind string

// Supported check kinds.
const (
	CheckRequiredKey    CheckKind = "required_key"
	CheckForbiddenKey   CheckKind = "forbidden_key"
	CheckValueMatch     CheckKind = "value_match"
	CheckValueEnum      CheckKind = "value_enum"
	CheckForbiddenValue CheckKind = "forbidden_value"
)

// Check holds the kind-specific payload of one rule, with the regex compiled
// and literal values interpreted at load time.
type Check struct {
	Kind          CheckKind
	Key           string
	Pattern       *regexp.Regexp
	PatternSource string
	AllowedValues []canonical.Value
	Value         canonical.Value
}

// Rule is one governance check with identity, severity, and an optional file
// glob restricting which configuration files it applies to.
type Rule struct {
	ID          string
	Description string
	Severity    Severity
	FileGlob    string
	Check       Check
}

// Policy is an ordered set of rules with unique identifiers.
type Policy struct {
	Name        string
	Description string
	Rules       []Rule
}

// Violation records one rule failing against one file's mapping. Violations
// are rebuilt per run and never persisted.
type Violation struct {
	RuleID          string   `json:"rule_id"`
	RuleDescription string   `json:"rule_description,omitempty"`
	Severity        Severity `json:"severity"`
	File            string   `json:"file"`
	KeyPath         string   `json:"key_path,omitempty"`
	Message         string   `json:"message"`
}
