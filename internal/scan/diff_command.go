package scan

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/outcome"
	"github.com/temirov/configtrace/internal/report"
)

const (
	diffCommandUseConstant          = "diff <old> <new>"
	diffCommandShortConstant        = "Compare two snapshots or configuration trees"
	diffCommandLongConstant         = "Diff compares two sides at the key level. Each side is either a snapshot file produced by scan or a configuration path, so a stored snapshot can serve as the old side without re-reading the tree it captured."
	diffSideStatTemplateConstant    = "cannot access diff side %q: %w"
	diffFileHeadingTemplateConstant = "%s %s\n"
	diffSummaryTemplateConstant     = "%d files differ: %w"
	noDifferencesMessageConstant    = "No differences found.\n"
)

// DiffCommandBuilder assembles the diff cobra command.
type DiffCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the diff command.
func (builder *DiffCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   diffCommandUseConstant,
		Short: diffCommandShortConstant,
		Long:  diffCommandLongConstant,
		Args:  cobra.ExactArgs(2),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *DiffCommandBuilder) run(command *cobra.Command, arguments []string) error {
	normalizer := normalize.NewNormalizer(builder.resolveMaximumDepth())

	oldSnapshot, oldResolveError := resolveDiffSide(arguments[0], normalizer)
	if oldResolveError != nil {
		return oldResolveError
	}
	newSnapshot, newResolveError := resolveDiffSide(arguments[1], normalizer)
	if newResolveError != nil {
		return newResolveError
	}

	differences := CompareSnapshots(oldSnapshot, newSnapshot)
	if len(differences) == 0 {
		fmt.Fprint(command.OutOrStdout(), noDifferencesMessageConstant)
		return nil
	}

	for _, difference := range differences {
		fmt.Fprintf(command.OutOrStdout(), diffFileHeadingTemplateConstant, difference.Kind, difference.Path)
		if renderError := report.RenderChanges(command.OutOrStdout(), difference.Changes); renderError != nil {
			return renderError
		}
	}

	return fmt.Errorf(diffSummaryTemplateConstant, len(differences), outcome.ErrFindingsDetected)
}

func (builder *DiffCommandBuilder) resolveMaximumDepth() int {
	fallbackBuilder := CommandBuilder{ConfigurationProvider: builder.ConfigurationProvider}
	return fallbackBuilder.resolveMaximumDepth()
}

// resolveDiffSide accepts either a snapshot file or a live configuration
// path. Directories and plain configuration files are scanned on the fly;
// anything that loads as a snapshot is used as-is.
func resolveDiffSide(sidePath string, normalizer *normalize.Normalizer) (*Snapshot, error) {
	sideInformation, statError := os.Stat(sidePath)
	if statError != nil {
		return nil, fmt.Errorf(diffSideStatTemplateConstant, sidePath, statError)
	}

	if !sideInformation.IsDir() {
		if snapshot, loadError := LoadSnapshot(sidePath); loadError == nil {
			return snapshot, nil
		}
	}

	return BuildSnapshot(sidePath, normalizer)
}
