package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/configtrace/internal/history"
	"github.com/temirov/configtrace/internal/policy"
	"github.com/temirov/configtrace/internal/secrets"
)

const (
	noIssuesSummaryConstant           = "No issues found"
	secretsSummaryTemplateConstant    = "%d secrets found"
	violationsSummaryTemplateConstant = "%d policy violations"
	summaryPartSeparatorConstant      = ", "
)

// Aggregate composes the audit sections into one report with a computed risk
// verdict. It performs no I/O: every input is taken as-is, with violations
// re-sorted by severity descending then file path for stable rendering.
func Aggregate(overview OverviewSection, inventory []InventoryEntry, secretsReport *secrets.Report, policySection *PolicySection, recentChanges []history.RevisionChangeSet) *AuditReport {
	if policySection != nil {
		sortViolations(policySection.Violations)
	}

	auditReport := &AuditReport{
		Overview:      overview,
		Inventory:     inventory,
		Secrets:       secretsReport,
		Policy:        policySection,
		RecentChanges: recentChanges,
	}
	auditReport.Risk = computeRisk(secretsReport, policySection)
	auditReport.RiskSummary = buildRiskSummary(secretsReport, policySection)
	return auditReport
}

// BuildPolicySection derives the summary counters from a flat violation list.
func BuildPolicySection(policyName string, violations []policy.Violation) *PolicySection {
	section := &PolicySection{
		PolicyName:      policyName,
		TotalViolations: len(violations),
		Violations:      violations,
	}
	for _, violation := range violations {
		switch violation.Severity {
		case policy.SeverityCritical:
			section.CriticalCount++
		case policy.SeverityHigh:
			section.HighCount++
		case policy.SeverityMedium:
			section.MediumCount++
		case policy.SeverityLow:
			section.LowCount++
		}
	}
	return section
}

// computeRisk applies the verdict ladder: critical anything fails the audit,
// high secrets or medium-and-above violations warn, everything else passes.
func computeRisk(secretsReport *secrets.Report, policySection *PolicySection) RiskLevel {
	if secretsReport != nil && secretsReport.CriticalCount > 0 {
		return RiskFail
	}
	if policySection != nil && policySection.CriticalCount > 0 {
		return RiskFail
	}
	if secretsReport != nil && secretsReport.HighCount > 0 {
		return RiskWarn
	}
	if policySection != nil && (policySection.HighCount > 0 || policySection.MediumCount > 0) {
		return RiskWarn
	}
	return RiskPass
}

func buildRiskSummary(secretsReport *secrets.Report, policySection *PolicySection) string {
	summaryParts := make([]string, 0, 2)
	if secretsReport != nil && secretsReport.TotalFindings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf(secretsSummaryTemplateConstant, secretsReport.TotalFindings))
	}
	if policySection != nil && policySection.TotalViolations > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf(violationsSummaryTemplateConstant, policySection.TotalViolations))
	}
	if len(summaryParts) == 0 {
		return noIssuesSummaryConstant
	}
	return strings.Join(summaryParts, summaryPartSeparatorConstant)
}

func sortViolations(violations []policy.Violation) {
	sort.SliceStable(violations, func(firstIndex, secondIndex int) bool {
		firstRank := violations[firstIndex].Severity.Rank()
		secondRank := violations[secondIndex].Severity.Rank()
		if firstRank != secondRank {
			return firstRank > secondRank
		}
		return violations[firstIndex].File < violations[secondIndex].File
	})
}
