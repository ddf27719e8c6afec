package policy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/discovery"
	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/outcome"
	"github.com/temirov/configtrace/internal/utils/flags"
)

const (
	policyCommandUseConstant           = "policy"
	policyCommandShortConstant         = "Evaluate and validate configuration policies"
	checkCommandUseConstant            = "check <path>"
	checkCommandShortConstant          = "Evaluate a policy against configuration files"
	checkCommandLongConstant           = "Check loads a policy document and evaluates every rule against each configuration file under the given path, reporting violations with their declared severities."
	validateCommandUseConstant         = "validate <policy>"
	validateCommandShortConstant       = "Validate a policy document without evaluating it"
	policyFlagNameConstant             = "policy"
	policyFlagUsageConstant            = "Path to the policy document."
	checkFormatFlagNameConstant        = "format"
	checkFormatFlagDescriptionConstant = "Output format."
	checkFormatTextConstant            = "text"
	checkFormatJSONConstant            = "json"
	unsupportedCheckFormatTemplate     = "unsupported output format %q"
	policyFlagMissingMessageConstant   = "a policy document is required; pass --policy"
	violationsFoundTemplateConstant    = "%d policy violations: %w"
	checkHeaderTemplateConstant        = "Policy %q: %d files checked, %d violations\n"
	noViolationsMessageConstant        = "No violations.\n"
	violationRowTemplateConstant       = "  [%s] %s %s: %s\n"
	parseSkippedTemplateConstant       = "  skipped %s: %s\n"
	policyValidMessageTemplateConstant = "Policy %q is valid: %d rules\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the policy command group.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the policy command with its check and validate
// subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   policyCommandUseConstant,
		Short: policyCommandShortConstant,
	}

	checkCommand := &cobra.Command{
		Use:   checkCommandUseConstant,
		Short: checkCommandShortConstant,
		Long:  checkCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runCheck,
	}
	checkCommand.Flags().String(policyFlagNameConstant, "", policyFlagUsageConstant)
	checkCommand.Flags().String(checkFormatFlagNameConstant, checkFormatTextConstant,
		flags.FormatChoiceUsage(checkFormatTextConstant, []string{checkFormatTextConstant, checkFormatJSONConstant}, checkFormatFlagDescriptionConstant))

	validateCommand := &cobra.Command{
		Use:   validateCommandUseConstant,
		Short: validateCommandShortConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runValidate,
	}

	groupCommand.AddCommand(checkCommand, validateCommand)
	return groupCommand, nil
}

func (builder *CommandBuilder) runCheck(command *cobra.Command, arguments []string) error {
	policyPath, _ := command.Flags().GetString(policyFlagNameConstant)
	if len(policyPath) == 0 {
		return fmt.Errorf(policyFlagMissingMessageConstant)
	}
	outputFormat, _ := command.Flags().GetString(checkFormatFlagNameConstant)

	checkedPolicy, loadError := LoadPolicy(policyPath)
	if loadError != nil {
		return loadError
	}

	discovered, discoveryError := discovery.DiscoverConfigFiles(arguments[0])
	if discoveryError != nil {
		return discoveryError
	}

	normalizer := normalize.NewNormalizer(canonical.DefaultMaximumFlattenDepth)
	violations := make([]Violation, 0)
	skippedFiles := make(map[string]string)
	for _, configurationPath := range discovered.Files {
		content, readError := os.ReadFile(configurationPath)
		if readError != nil {
			skippedFiles[configurationPath] = readError.Error()
			continue
		}
		mapping, normalizeError := normalizer.NormalizeFile(configurationPath, content)
		if normalizeError != nil {
			skippedFiles[configurationPath] = normalizeError.Error()
			continue
		}
		violations = append(violations, Evaluate(checkedPolicy, mapping, configurationPath)...)
	}

	switch outputFormat {
	case checkFormatJSONConstant:
		encoder := json.NewEncoder(command.OutOrStdout())
		encoder.SetIndent("", "  ")
		if encodeError := encoder.Encode(violations); encodeError != nil {
			return encodeError
		}
	case checkFormatTextConstant:
		renderCheckReport(command.OutOrStdout(), checkedPolicy, len(discovered.Files), violations, skippedFiles)
	default:
		return fmt.Errorf(unsupportedCheckFormatTemplate, outputFormat)
	}

	if len(violations) > 0 {
		return fmt.Errorf(violationsFoundTemplateConstant, len(violations), outcome.ErrFindingsDetected)
	}
	return nil
}

func (builder *CommandBuilder) runValidate(command *cobra.Command, arguments []string) error {
	validatedPolicy, loadError := LoadPolicy(arguments[0])
	if loadError != nil {
		return loadError
	}
	fmt.Fprintf(command.OutOrStdout(), policyValidMessageTemplateConstant, validatedPolicy.Name, len(validatedPolicy.Rules))
	return nil
}

func renderCheckReport(destination io.Writer, checkedPolicy *Policy, checkedFileCount int, violations []Violation, skippedFiles map[string]string) {
	fmt.Fprintf(destination, checkHeaderTemplateConstant, checkedPolicy.Name, checkedFileCount, len(violations))
	for skippedPath, skipReason := range skippedFiles {
		fmt.Fprintf(destination, parseSkippedTemplateConstant, skippedPath, skipReason)
	}
	if len(violations) == 0 {
		fmt.Fprint(destination, noViolationsMessageConstant)
		return
	}
	for _, violation := range violations {
		fmt.Fprintf(destination, violationRowTemplateConstant, violation.Severity, violation.File, violation.KeyPath, violation.Message)
	}
}
