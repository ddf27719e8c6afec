package report

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/execshell"
	"github.com/temirov/configtrace/internal/history"
	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/outcome"
	"github.com/temirov/configtrace/internal/policy"
	"github.com/temirov/configtrace/internal/secrets"
	"github.com/temirov/configtrace/internal/utils"
	"github.com/temirov/configtrace/internal/utils/flags"
)

const (
	reportCommandUseConstant                = "report <path>"
	reportCommandShortConstant              = "Produce a unified audit report"
	reportCommandLongConstant               = "Report combines the configuration inventory, secret findings, policy violations, and recent history into one audit report with a computed risk verdict."
	reportPolicyFlagNameConstant            = "policy"
	reportPolicyFlagUsageConstant           = "Optional path to a policy document evaluated as part of the audit."
	reportFormatFlagNameConstant            = "format"
	reportFormatFlagDescriptionConstant     = "Output format."
	reportFormatTextConstant                = "text"
	reportFormatJSONConstant                = "json"
	reportFormatMarkdownConstant            = "markdown"
	unsupportedReportFormatTemplateConstant = "unsupported output format %q"
	reportRiskTemplateConstant              = "audit risk %s: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// GitExecutorProvider supplies the shell executor used for the optional
// history section.
type GitExecutorProvider func(logger *zap.Logger) (history.GitExecutor, error)

// CommandBuilder assembles the report cobra command.
type CommandBuilder struct {
	LoggerProvider      LoggerProvider
	GitExecutorProvider GitExecutorProvider
}

// Build constructs the report command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   reportCommandUseConstant,
		Short: reportCommandShortConstant,
		Long:  reportCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(reportPolicyFlagNameConstant, "", reportPolicyFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, reportFormatTextConstant,
		flags.FormatChoiceUsage(reportFormatTextConstant, []string{reportFormatTextConstant, reportFormatJSONConstant, reportFormatMarkdownConstant}, reportFormatFlagDescriptionConstant))

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	auditedRoot := arguments[0]
	policyPath, _ := command.Flags().GetString(reportPolicyFlagNameConstant)
	outputFormat, _ := command.Flags().GetString(reportFormatFlagNameConstant)

	logger := builder.resolveLogger()

	var auditedPolicy *policy.Policy
	if len(policyPath) > 0 {
		loadedPolicy, loadError := policy.LoadPolicy(policyPath)
		if loadError != nil {
			return loadError
		}
		auditedPolicy = loadedPolicy
	}

	normalizer := normalize.NewNormalizer(canonical.DefaultMaximumFlattenDepth)
	historyProvider := builder.resolveHistoryProvider(command, logger, normalizer, auditedRoot)

	reportBuilder := NewBuilder(logger, normalizer, secrets.NewScanner(logger), historyProvider)
	auditReport, buildError := reportBuilder.Build(command.Context(), auditedRoot, auditedPolicy)
	if buildError != nil {
		return buildError
	}

	if renderError := renderReport(utils.NewFlushingWriter(command.OutOrStdout()), auditReport, outputFormat); renderError != nil {
		return renderError
	}

	if auditReport.HasFindings() {
		return fmt.Errorf(reportRiskTemplateConstant, auditReport.Risk.Display(), outcome.ErrFindingsDetected)
	}
	return nil
}

// resolveHistoryProvider wires a git-backed walker when the audited tree is
// a repository. Any failure simply drops the history section.
func (builder *CommandBuilder) resolveHistoryProvider(command *cobra.Command, logger *zap.Logger, normalizer *normalize.Normalizer, auditedRoot string) HistoryProvider {
	executorProvider := builder.GitExecutorProvider
	if executorProvider == nil {
		executorProvider = func(executorLogger *zap.Logger) (history.GitExecutor, error) {
			return execshell.NewShellExecutor(executorLogger, execshell.NewOSCommandRunner(), nil)
		}
	}

	gitExecutor, executorError := executorProvider(logger)
	if executorError != nil {
		return nil
	}
	contentRetriever, retrieverError := history.NewGitContentRetriever(command.Context(), gitExecutor, auditedRoot)
	if retrieverError != nil {
		return nil
	}
	return history.NewWalker(contentRetriever, normalizer)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func renderReport(destination io.Writer, auditReport *AuditReport, outputFormat string) error {
	switch outputFormat {
	case reportFormatJSONConstant:
		return RenderJSON(destination, auditReport)
	case reportFormatMarkdownConstant:
		return RenderMarkdown(destination, auditReport)
	case reportFormatTextConstant:
		return RenderText(destination, auditReport)
	default:
		return fmt.Errorf(unsupportedReportFormatTemplateConstant, outputFormat)
	}
}
