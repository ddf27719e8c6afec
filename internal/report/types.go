package report

import (
	"github.com/temirov/configtrace/internal/history"
	"github.com/temirov/configtrace/internal/policy"
	"github.com/temirov/configtrace/internal/secrets"
)

// RiskLevel is the overall verdict of an audit.
type RiskLevel string

// Risk verdicts ordered from clean to failing.
const (
	RiskPass RiskLevel = "pass"
	RiskWarn RiskLevel = "warn"
	RiskFail RiskLevel = "fail"
)

const (
	riskPassDisplayConstant = "PASS"
	riskWarnDisplayConstant = "WARN"
	riskFailDisplayConstant = "FAIL"
)

// Display renders the verdict in its uppercase report form.
func (riskLevel RiskLevel) Display() string {
	switch riskLevel {
	case RiskFail:
		return riskFailDisplayConstant
	case RiskWarn:
		return riskWarnDisplayConstant
	default:
		return riskPassDisplayConstant
	}
}

// OverviewSection summarizes what an audit looked at.
type OverviewSection struct {
	GeneratedAt string `json:"generated_at"`
	Path        string `json:"path"`
	TotalFiles  int    `json:"total_files"`
	YAMLCount   int    `json:"yaml_count"`
	JSONCount   int    `json:"json_count"`
	TOMLCount   int    `json:"toml_count"`
}

// InventoryEntry is one configuration file in the audited tree.
type InventoryEntry struct {
	Path   string `json:"path"`
	Hash   string `json:"hash"`
	Format string `json:"format"`
}

// PolicySection summarizes policy evaluation across the audited tree.
type PolicySection struct {
	PolicyName      string             `json:"policy_name"`
	TotalViolations int                `json:"total_violations"`
	CriticalCount   int                `json:"critical_count"`
	HighCount       int                `json:"high_count"`
	MediumCount     int                `json:"medium_count"`
	LowCount        int                `json:"low_count"`
	Violations      []policy.Violation `json:"violations"`
}

// AuditReport is the unified output combining inventory, secret findings,
// policy violations, and recent history.
type AuditReport struct {
	Overview      OverviewSection             `json:"overview"`
	Inventory     []InventoryEntry            `json:"inventory"`
	Secrets       *secrets.Report             `json:"secrets,omitempty"`
	Policy        *PolicySection              `json:"policy,omitempty"`
	RecentChanges []history.RevisionChangeSet `json:"recent_changes,omitempty"`
	Risk          RiskLevel                   `json:"risk_level"`
	RiskSummary   string                      `json:"risk_summary"`
}

// HasFindings reports whether the audit surfaced anything at all.
func (auditReport *AuditReport) HasFindings() bool {
	return auditReport.Risk != RiskPass
}
