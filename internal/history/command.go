package history

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/diffengine"
	"github.com/temirov/configtrace/internal/execshell"
	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/outcome"
	"github.com/temirov/configtrace/internal/policy"
	"github.com/temirov/configtrace/internal/utils/flags"
	pathutils "github.com/temirov/configtrace/internal/utils/path"
)

const (
	gitCommandUseConstant                    = "git"
	gitCommandShortConstant                  = "Audit configuration changes across git history"
	logCommandUseConstant                    = "log [path]"
	logCommandShortConstant                  = "Show configuration changes per revision"
	logCommandLongConstant                   = "Log walks repository history newest first and reports the key-level configuration changes each revision introduced, optionally evaluating a policy against every touched file."
	diffCommandUseConstant                   = "diff <ref1> <ref2> [path]"
	diffCommandShortConstant                 = "Compare configuration files between two revisions"
	limitFlagNameConstant                    = "limit"
	limitFlagUsageConstant                   = "Maximum number of revisions to walk."
	repositoryFlagNameConstant               = "repository"
	repositoryFlagUsageConstant              = "Repository root to audit."
	historyPolicyFlagNameConstant            = "policy"
	historyPolicyFlagUsageConstant           = "Optional path to a policy document evaluated per revision."
	historyFormatFlagNameConstant            = "format"
	historyFormatFlagDescriptionConstant     = "Output format."
	historyFormatTextConstant                = "text"
	historyFormatJSONConstant                = "json"
	unsupportedHistoryFormatTemplateConstant = "unsupported output format %q"
	defaultWalkLimitConstant                 = 20
	defaultRepositoryPathConstant            = "."
	historyViolationsTemplateConstant        = "%d policy violations across history: %w"
	revisionDiffersTemplateConstant          = "configuration differs between %s and %s: %w"
	noHistoryChangesMessageConstant          = "No configuration changes found.\n"
	revisionHeadingTemplateConstant          = "revision %s  %s  %s\n"
	fileHeadingTemplateConstant              = "  %s\n"
	fileFailureTemplateConstant              = "  %s: error: %s\n"
	violationRowTemplateConstant             = "    violation [%s] %s: %s\n"
	changeAddedTemplateConstant              = "    ADDED    %s = %s\n"
	changeRemovedTemplateConstant            = "    REMOVED  %s\n"
	changeChangedTemplateConstant            = "    CHANGED  %s: %s -> %s\n"
)

// Configuration holds the persisted settings of the history command family.
type Configuration struct {
	Limit int `mapstructure:"limit"`
}

const configurationLimitKeyConstant = "limit"

// DefaultConfigurationValues exposes the history defaults for configuration
// registration under the given key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + "." + configurationLimitKeyConstant: defaultWalkLimitConstant,
	}
}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved history configuration.
type ConfigurationProvider func() Configuration

// GitExecutorProvider supplies the shell executor backing the retriever.
type GitExecutorProvider func(logger *zap.Logger) (GitExecutor, error)

// CommandBuilder assembles the git command group with its log and diff
// subcommands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitExecutorProvider   GitExecutorProvider
}

// Build constructs the git command group.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   gitCommandUseConstant,
		Short: gitCommandShortConstant,
	}

	logCommand := &cobra.Command{
		Use:   logCommandUseConstant,
		Short: logCommandShortConstant,
		Long:  logCommandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runLog,
	}
	logCommand.Flags().Int(limitFlagNameConstant, 0, limitFlagUsageConstant)
	builder.bindSharedFlags(logCommand)

	diffCommand := &cobra.Command{
		Use:   diffCommandUseConstant,
		Short: diffCommandShortConstant,
		Args:  cobra.RangeArgs(2, 3),
		RunE:  builder.runDiff,
	}
	builder.bindSharedFlags(diffCommand)

	groupCommand.AddCommand(logCommand, diffCommand)
	return groupCommand, nil
}

func (builder *CommandBuilder) bindSharedFlags(command *cobra.Command) {
	command.Flags().String(repositoryFlagNameConstant, defaultRepositoryPathConstant, repositoryFlagUsageConstant)
	command.Flags().String(historyPolicyFlagNameConstant, "", historyPolicyFlagUsageConstant)
	command.Flags().String(historyFormatFlagNameConstant, historyFormatTextConstant,
		flags.FormatChoiceUsage(historyFormatTextConstant, []string{historyFormatTextConstant, historyFormatJSONConstant}, historyFormatFlagDescriptionConstant))
}

func (builder *CommandBuilder) runLog(command *cobra.Command, arguments []string) error {
	pathFilter := ""
	if len(arguments) > 0 {
		pathFilter = arguments[0]
	}

	walker, walkOptions, optionsError := builder.prepareWalk(command, pathFilter)
	if optionsError != nil {
		return optionsError
	}

	if limitFlagValue, _ := command.Flags().GetInt(limitFlagNameConstant); limitFlagValue > 0 {
		walkOptions.Limit = limitFlagValue
	}

	changeSets, walkError := walker.Walk(command.Context(), walkOptions)
	if walkError != nil {
		return walkError
	}

	if renderError := builder.renderChangeSets(command, changeSets); renderError != nil {
		return renderError
	}

	// Enumerated history is the command's normal output; only attached
	// policy violations count as findings.
	violationCount := 0
	for _, changeSet := range changeSets {
		violationCount += len(changeSet.Violations())
	}
	if violationCount > 0 {
		return fmt.Errorf(historyViolationsTemplateConstant, violationCount, outcome.ErrFindingsDetected)
	}
	return nil
}

func (builder *CommandBuilder) runDiff(command *cobra.Command, arguments []string) error {
	pathFilter := ""
	if len(arguments) > 2 {
		pathFilter = arguments[2]
	}

	walker, walkOptions, optionsError := builder.prepareWalk(command, pathFilter)
	if optionsError != nil {
		return optionsError
	}

	changeSet, compareError := walker.Compare(command.Context(), arguments[0], arguments[1], walkOptions)
	if compareError != nil {
		return compareError
	}

	changeSets := make([]RevisionChangeSet, 0, 1)
	if len(changeSet.FileChanges) > 0 {
		changeSets = append(changeSets, *changeSet)
	}
	if renderError := builder.renderChangeSets(command, changeSets); renderError != nil {
		return renderError
	}

	if len(changeSet.FileChanges) > 0 {
		return fmt.Errorf(revisionDiffersTemplateConstant, arguments[0], arguments[1], outcome.ErrFindingsDetected)
	}
	return nil
}

// prepareWalk resolves the shared collaborators of both subcommands: the
// git-backed retriever, the walker, and the walk options implied by flags.
func (builder *CommandBuilder) prepareWalk(command *cobra.Command, pathFilter string) (*Walker, WalkOptions, error) {
	repositoryPath, _ := command.Flags().GetString(repositoryFlagNameConstant)
	repositoryPath = pathutils.NewHomeExpander().Expand(repositoryPath)
	policyPath, _ := command.Flags().GetString(historyPolicyFlagNameConstant)

	walkOptions := WalkOptions{PathFilter: pathFilter, Limit: builder.resolveLimit()}
	if len(policyPath) > 0 {
		loadedPolicy, loadError := policy.LoadPolicy(policyPath)
		if loadError != nil {
			return nil, WalkOptions{}, loadError
		}
		walkOptions.Policy = loadedPolicy
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveGitExecutor(logger)
	if executorError != nil {
		return nil, WalkOptions{}, executorError
	}

	contentRetriever, retrieverError := NewGitContentRetriever(command.Context(), gitExecutor, repositoryPath)
	if retrieverError != nil {
		return nil, WalkOptions{}, retrieverError
	}

	normalizer := normalize.NewNormalizer(canonical.DefaultMaximumFlattenDepth)
	return NewWalker(contentRetriever, normalizer), walkOptions, nil
}

func (builder *CommandBuilder) renderChangeSets(command *cobra.Command, changeSets []RevisionChangeSet) error {
	outputFormat, _ := command.Flags().GetString(historyFormatFlagNameConstant)
	switch outputFormat {
	case historyFormatJSONConstant:
		encoder := json.NewEncoder(command.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(changeSets)
	case historyFormatTextConstant:
		renderChangeSetsText(command.OutOrStdout(), changeSets)
		return nil
	default:
		return fmt.Errorf(unsupportedHistoryFormatTemplateConstant, outputFormat)
	}
}

func renderChangeSetsText(destination io.Writer, changeSets []RevisionChangeSet) {
	if len(changeSets) == 0 {
		fmt.Fprint(destination, noHistoryChangesMessageConstant)
		return
	}
	for _, changeSet := range changeSets {
		fmt.Fprintf(destination, revisionHeadingTemplateConstant, changeSet.Revision.ID, changeSet.Revision.Author, changeSet.Revision.Message)
		for _, fileChange := range changeSet.FileChanges {
			if len(fileChange.Failure) > 0 {
				fmt.Fprintf(destination, fileFailureTemplateConstant, fileChange.Path, fileChange.Failure)
				continue
			}
			fmt.Fprintf(destination, fileHeadingTemplateConstant, fileChange.Path)
			for _, change := range fileChange.Changes {
				renderChangeText(destination, change)
			}
			for _, violation := range fileChange.Violations {
				fmt.Fprintf(destination, violationRowTemplateConstant, violation.Severity, violation.KeyPath, violation.Message)
			}
		}
	}
}

func renderChangeText(destination io.Writer, change diffengine.Change) {
	switch change.Kind {
	case diffengine.ChangeKindAdded:
		fmt.Fprintf(destination, changeAddedTemplateConstant, change.Path, renderChangeValue(change.NewValue))
	case diffengine.ChangeKindRemoved:
		fmt.Fprintf(destination, changeRemovedTemplateConstant, change.Path)
	default:
		fmt.Fprintf(destination, changeChangedTemplateConstant, change.Path, renderChangeValue(change.OldValue), renderChangeValue(change.NewValue))
	}
}

func renderChangeValue(value *canonical.Value) string {
	if value == nil {
		return ""
	}
	return canonical.Render(*value)
}

func (builder *CommandBuilder) resolveLimit() int {
	if builder.ConfigurationProvider == nil {
		return defaultWalkLimitConstant
	}
	configuredLimit := builder.ConfigurationProvider().Limit
	if configuredLimit <= 0 {
		return defaultWalkLimitConstant
	}
	return configuredLimit
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.GitExecutorProvider != nil {
		return builder.GitExecutorProvider(logger)
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), nil)
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
