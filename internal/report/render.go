package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/diffengine"
)

const (
	textHeaderConstant                 = "ConfigTrace Audit Report"
	textHeaderRuleConstant             = "========================"
	textGeneratedTemplateConstant      = "Generated: %s\n"
	textPathTemplateConstant           = "Path: %s\n"
	textFilesTemplateConstant          = "Files: %d (%d yaml, %d json, %d toml)\n"
	textInventoryHeadingConstant       = "Config Inventory"
	textSecretsHeadingConstant         = "Secret Findings"
	textPolicyHeadingConstant          = "Policy Violations"
	textChangesHeadingConstant         = "Recent Changes"
	textRiskTemplateConstant           = "Risk: %s (%s)\n"
	textNoSecretsConstant              = "  No secrets found.\n"
	textNoViolationsConstant           = "  No violations.\n"
	textInventoryRowTemplateConstant   = "  %-40s %s\n"
	textSecretRowTemplateConstant      = "    [%s] line %d: %s (%s)\n"
	textViolationRowTemplateConstant   = "    [%s] %s: %s\n"
	textRevisionRowTemplateConstant    = "  %s %s (%s)\n"
	textFileChangeTemplateConstant     = "    %s: +%d -%d ~%d\n"
	textFileFailureTemplateConstant    = "    %s: error: %s\n"
	inventoryHashDisplayLengthConstant = 12

	markdownHeaderConstant               = "# ConfigTrace Audit Report\n\n"
	markdownOverviewTemplateConstant     = "- Generated: %s\n- Path: %s\n- Files: %d (%d yaml, %d json, %d toml)\n- Risk: **%s** (%s)\n"
	markdownSectionTemplateConstant      = "\n## %s\n\n"
	markdownInventoryRowTemplateConstant = "| %s | `%s` | %s |\n"
	markdownInventoryTableHeadConstant   = "| Path | Hash | Format |\n|---|---|---|\n"
	markdownSecretRowTemplateConstant    = "- **%s** `%s` line %d: %s\n"
	markdownViolationRowTemplateConstant = "- **%s** `%s` %s: %s\n"

	changeRowTemplateConstant        = "%-8s %s\n"
	changeValueTemplateConstant      = "%-8s %s: %s -> %s\n"
	changeAddedValueTemplateConstant = "%-8s %s = %s\n"
)

// RenderJSON writes the report as indented JSON.
func RenderJSON(writer io.Writer, auditReport *AuditReport) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(auditReport)
}

// RenderText writes the terminal rendering of the report.
func RenderText(writer io.Writer, auditReport *AuditReport) error {
	if _, writeError := fmt.Fprintf(writer, "%s\n%s\n", textHeaderConstant, textHeaderRuleConstant); writeError != nil {
		return writeError
	}
	fmt.Fprintf(writer, textGeneratedTemplateConstant, auditReport.Overview.GeneratedAt)
	fmt.Fprintf(writer, textPathTemplateConstant, auditReport.Overview.Path)
	fmt.Fprintf(writer, textFilesTemplateConstant, auditReport.Overview.TotalFiles, auditReport.Overview.YAMLCount, auditReport.Overview.JSONCount, auditReport.Overview.TOMLCount)
	fmt.Fprintf(writer, textRiskTemplateConstant, auditReport.Risk.Display(), auditReport.RiskSummary)

	fmt.Fprintf(writer, "\n%s\n", textInventoryHeadingConstant)
	for _, entry := range auditReport.Inventory {
		fmt.Fprintf(writer, textInventoryRowTemplateConstant, entry.Path, truncateHash(entry.Hash))
	}

	if auditReport.Secrets != nil {
		fmt.Fprintf(writer, "\n%s\n", textSecretsHeadingConstant)
		if auditReport.Secrets.TotalFindings == 0 {
			fmt.Fprint(writer, textNoSecretsConstant)
		}
		for _, fileFindings := range auditReport.Secrets.Files {
			fmt.Fprintf(writer, "  %s:\n", fileFindings.Path)
			for _, finding := range fileFindings.Findings {
				fmt.Fprintf(writer, textSecretRowTemplateConstant, finding.Severity, finding.Line, finding.Pattern, finding.Snippet)
			}
		}
	}

	if auditReport.Policy != nil {
		fmt.Fprintf(writer, "\n%s\n", textPolicyHeadingConstant)
		if auditReport.Policy.TotalViolations == 0 {
			fmt.Fprint(writer, textNoViolationsConstant)
		}
		for _, violation := range auditReport.Policy.Violations {
			fmt.Fprintf(writer, textViolationRowTemplateConstant, violation.Severity, violation.File, violation.Message)
		}
	}

	if len(auditReport.RecentChanges) > 0 {
		fmt.Fprintf(writer, "\n%s\n", textChangesHeadingConstant)
		for _, changeSet := range auditReport.RecentChanges {
			fmt.Fprintf(writer, textRevisionRowTemplateConstant, shortRevision(changeSet.Revision.ID), changeSet.Revision.Message, changeSet.Revision.Author)
			for _, fileChange := range changeSet.FileChanges {
				if len(fileChange.Failure) > 0 {
					fmt.Fprintf(writer, textFileFailureTemplateConstant, fileChange.Path, fileChange.Failure)
					continue
				}
				fmt.Fprintf(writer, textFileChangeTemplateConstant, fileChange.Path, fileChange.Summary.Added, fileChange.Summary.Removed, fileChange.Summary.Changed)
			}
		}
	}

	return nil
}

// RenderMarkdown writes the Markdown rendering of the report.
func RenderMarkdown(writer io.Writer, auditReport *AuditReport) error {
	if _, writeError := fmt.Fprint(writer, markdownHeaderConstant); writeError != nil {
		return writeError
	}
	fmt.Fprintf(writer, markdownOverviewTemplateConstant,
		auditReport.Overview.GeneratedAt,
		auditReport.Overview.Path,
		auditReport.Overview.TotalFiles,
		auditReport.Overview.YAMLCount,
		auditReport.Overview.JSONCount,
		auditReport.Overview.TOMLCount,
		auditReport.Risk.Display(),
		auditReport.RiskSummary,
	)

	fmt.Fprintf(writer, markdownSectionTemplateConstant, textInventoryHeadingConstant)
	fmt.Fprint(writer, markdownInventoryTableHeadConstant)
	for _, entry := range auditReport.Inventory {
		fmt.Fprintf(writer, markdownInventoryRowTemplateConstant, entry.Path, truncateHash(entry.Hash), entry.Format)
	}

	if auditReport.Secrets != nil && auditReport.Secrets.TotalFindings > 0 {
		fmt.Fprintf(writer, markdownSectionTemplateConstant, textSecretsHeadingConstant)
		for _, fileFindings := range auditReport.Secrets.Files {
			for _, finding := range fileFindings.Findings {
				fmt.Fprintf(writer, markdownSecretRowTemplateConstant, finding.Severity, fileFindings.Path, finding.Line, finding.Pattern)
			}
		}
	}

	if auditReport.Policy != nil && auditReport.Policy.TotalViolations > 0 {
		fmt.Fprintf(writer, markdownSectionTemplateConstant, textPolicyHeadingConstant)
		for _, violation := range auditReport.Policy.Violations {
			fmt.Fprintf(writer, markdownViolationRowTemplateConstant, violation.Severity, violation.File, violation.KeyPath, violation.Message)
		}
	}

	return nil
}

// RenderChanges writes a standalone change list in the terminal form used by
// the diff commands.
func RenderChanges(writer io.Writer, changes []diffengine.Change) error {
	for _, change := range changes {
		switch change.Kind {
		case diffengine.ChangeKindAdded:
			if _, writeError := fmt.Fprintf(writer, changeAddedValueTemplateConstant, changeKindLabel(change.Kind), change.Path, renderOptionalValue(change.NewValue)); writeError != nil {
				return writeError
			}
		case diffengine.ChangeKindRemoved:
			if _, writeError := fmt.Fprintf(writer, changeRowTemplateConstant, changeKindLabel(change.Kind), change.Path); writeError != nil {
				return writeError
			}
		default:
			if _, writeError := fmt.Fprintf(writer, changeValueTemplateConstant, changeKindLabel(change.Kind), change.Path, renderOptionalValue(change.OldValue), renderOptionalValue(change.NewValue)); writeError != nil {
				return writeError
			}
		}
	}
	return nil
}

func changeKindLabel(kind diffengine.ChangeKind) string {
	switch kind {
	case diffengine.ChangeKindAdded:
		return "ADDED"
	case diffengine.ChangeKindRemoved:
		return "REMOVED"
	default:
		return "CHANGED"
	}
}

func renderOptionalValue(value *canonical.Value) string {
	if value == nil {
		return ""
	}
	return canonical.Render(*value)
}

func truncateHash(hash string) string {
	if len(hash) <= inventoryHashDisplayLengthConstant {
		return hash
	}
	return hash[:inventoryHashDisplayLengthConstant]
}

func shortRevision(revisionID string) string {
	if len(revisionID) <= 8 {
		return revisionID
	}
	return revisionID[:8]
}
