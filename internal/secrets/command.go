package secrets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/outcome"
	"github.com/temirov/configtrace/internal/utils/flags"
)

const (
	secretsCommandUseConstant         = "secrets <path>"
	secretsCommandShortConstant       = "Scan configuration files for committed credentials"
	secretsCommandLongConstant        = "Secrets walks configuration files under a path and matches each line against a catalog of credential patterns. Matches are redacted before reporting."
	formatFlagNameConstant            = "format"
	formatFlagDescriptionConstant     = "Output format."
	outputFlagNameConstant            = "output"
	outputFlagUsageConstant           = "Write the report to a file instead of standard output."
	formatTextConstant                = "text"
	formatJSONConstant                = "json"
	unsupportedFormatTemplateConstant = "unsupported output format %q"
	outputFileModeConstant            = 0o644
	secretsFoundTemplateConstant      = "%d secrets found: %w"
	scanHeaderTemplateConstant        = "Scanned %d files, %d with secrets (%d critical, %d high)\n"
	noSecretsMessageConstant          = "No secrets found.\n"
	secretFileTemplateConstant        = "%s:\n"
	secretFindingTemplateConstant     = "  [%s] line %d: %s - %s\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the secrets cobra command.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the secrets command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   secretsCommandUseConstant,
		Short: secretsCommandShortConstant,
		Long:  secretsCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(formatFlagNameConstant, formatTextConstant,
		flags.FormatChoiceUsage(formatTextConstant, []string{formatTextConstant, formatJSONConstant}, formatFlagDescriptionConstant))
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	outputFormat, _ := command.Flags().GetString(formatFlagNameConstant)
	outputPath, _ := command.Flags().GetString(outputFlagNameConstant)

	scanner := NewScanner(builder.resolveLogger())
	scanReport, scanError := scanner.ScanDirectory(arguments[0])
	if scanError != nil {
		return scanError
	}

	destination, closeDestination, destinationError := resolveDestination(command.OutOrStdout(), outputPath)
	if destinationError != nil {
		return destinationError
	}
	defer closeDestination()

	switch outputFormat {
	case formatJSONConstant:
		encoder := json.NewEncoder(destination)
		encoder.SetIndent("", "  ")
		if encodeError := encoder.Encode(scanReport); encodeError != nil {
			return encodeError
		}
	case formatTextConstant:
		renderTextReport(destination, scanReport)
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, outputFormat)
	}

	if scanReport.HasFindings() {
		return fmt.Errorf(secretsFoundTemplateConstant, scanReport.TotalFindings, outcome.ErrFindingsDetected)
	}
	return nil
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

func renderTextReport(destination io.Writer, scanReport *Report) {
	fmt.Fprintf(destination, scanHeaderTemplateConstant, scanReport.TotalFiles, scanReport.FilesWithSecrets, scanReport.CriticalCount, scanReport.HighCount)
	if !scanReport.HasFindings() {
		fmt.Fprint(destination, noSecretsMessageConstant)
		return
	}
	for _, fileFindings := range scanReport.Files {
		fmt.Fprintf(destination, secretFileTemplateConstant, fileFindings.Path)
		for _, finding := range fileFindings.Findings {
			fmt.Fprintf(destination, secretFindingTemplateConstant, finding.Severity, finding.Line, finding.Pattern, finding.Snippet)
		}
	}
}

func resolveDestination(defaultWriter io.Writer, outputPath string) (io.Writer, func(), error) {
	if len(outputPath) == 0 {
		return defaultWriter, func() {}, nil
	}
	outputFile, openError := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileModeConstant)
	if openError != nil {
		return nil, nil, openError
	}
	return outputFile, func() { _ = outputFile.Close() }, nil
}
