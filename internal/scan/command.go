package scan

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/normalize"
	pathutils "github.com/temirov/configtrace/internal/utils/path"
)

const (
	scanCommandUseConstant          = "scan <path>"
	scanCommandShortConstant        = "Inventory configuration files and write a snapshot"
	scanCommandLongConstant         = "Scan walks a directory tree, hashes every configuration file, normalizes each into its flattened mapping, and optionally persists the result as a snapshot for later comparison."
	outputFlagNameConstant          = "out"
	outputFlagUsageConstant         = "Path to write the snapshot file."
	missingPathArgumentConstant     = "a path to scan is required"
	snapshotWrittenMessageConstant  = "snapshot written"
	logFieldSnapshotPathConstant    = "snapshot_path"
	logFieldScannedFilesConstant    = "scanned_files"
	scanSummaryTemplateConstant     = "Scanned %d configuration files under %s\n"
	parseFailureRowTemplateConstant = "  parse error: %s: %s\n"

	configurationMaxDepthKeyConstant = "max_depth"
)

// Configuration holds the persisted settings of the scan command family.
type Configuration struct {
	MaximumDepth int `mapstructure:"max_depth"`
}

// DefaultConfigurationValues exposes the scan defaults for configuration
// registration under the given key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + "." + configurationMaxDepthKeyConstant: canonical.DefaultMaximumFlattenDepth,
	}
}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved scan configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the scan cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the scan command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scanCommandUseConstant,
		Short: scanCommandShortConstant,
		Long:  scanCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return errors.New(missingPathArgumentConstant)
	}
	scannedRoot := pathutils.NewHomeExpander().Expand(arguments[0])
	outputPath, _ := command.Flags().GetString(outputFlagNameConstant)

	logger := builder.resolveLogger()
	normalizer := normalize.NewNormalizer(builder.resolveMaximumDepth())

	snapshot, buildError := BuildSnapshot(scannedRoot, normalizer)
	if buildError != nil {
		return buildError
	}

	fmt.Fprintf(command.OutOrStdout(), scanSummaryTemplateConstant, len(snapshot.Entries), scannedRoot)
	for failurePath, failureMessage := range snapshot.ParseFailures {
		fmt.Fprintf(command.ErrOrStderr(), parseFailureRowTemplateConstant, failurePath, failureMessage)
	}

	if len(outputPath) > 0 {
		if writeError := WriteSnapshot(snapshot, outputPath); writeError != nil {
			return writeError
		}
		logger.Info(snapshotWrittenMessageConstant,
			zap.String(logFieldSnapshotPathConstant, outputPath),
			zap.Int(logFieldScannedFilesConstant, len(snapshot.Entries)),
		)
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

func (builder *CommandBuilder) resolveMaximumDepth() int {
	if builder.ConfigurationProvider == nil {
		return canonical.DefaultMaximumFlattenDepth
	}
	configuredDepth := builder.ConfigurationProvider().MaximumDepth
	if configuredDepth <= 0 {
		return canonical.DefaultMaximumFlattenDepth
	}
	return configuredDepth
}
