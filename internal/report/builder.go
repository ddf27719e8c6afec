package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/discovery"
	"github.com/temirov/configtrace/internal/history"
	"github.com/temirov/configtrace/internal/normalize"
	"github.com/temirov/configtrace/internal/policy"
	"github.com/temirov/configtrace/internal/secrets"
)

const (
	secretScanFailedMessageConstant    = "secret scan failed"
	historySkippedMessageConstant      = "history section skipped"
	unreadableInventoryMessageConstant = "skipping unreadable file in inventory"
	builderLogFieldPathConstant        = "path"
	builderLogFieldReasonConstant      = "reason"
	defaultHistoryLimitConstant        = 5
)

// HistoryProvider supplies the recent-changes section. It is optional: a
// tree that is not under version control simply has no history section.
type HistoryProvider interface {
	Walk(executionContext context.Context, options history.WalkOptions) ([]history.RevisionChangeSet, error)
}

// Builder assembles AuditReports by running every audit section over one
// configuration tree. Aggregation itself stays pure; the builder owns all
// the I/O feeding it.
type Builder struct {
	logger          *zap.Logger
	normalizer      *normalize.Normalizer
	secretScanner   *secrets.Scanner
	historyProvider HistoryProvider
}

// NewBuilder constructs a report builder. The history provider may be nil.
func NewBuilder(logger *zap.Logger, normalizer *normalize.Normalizer, secretScanner *secrets.Scanner, historyProvider HistoryProvider) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		logger:          logger,
		normalizer:      normalizer,
		secretScanner:   secretScanner,
		historyProvider: historyProvider,
	}
}

// Build audits the tree at root, optionally evaluating the given policy
// against every parseable configuration file. Section-level failures degrade
// to missing sections; only an unreachable root is fatal.
func (builder *Builder) Build(executionContext context.Context, root string, auditedPolicy *policy.Policy) (*AuditReport, error) {
	overview, inventory, discoveryError := builder.buildInventory(root)
	if discoveryError != nil {
		return nil, discoveryError
	}

	secretsReport, secretScanError := builder.secretScanner.ScanDirectory(root)
	if secretScanError != nil {
		builder.logger.Warn(secretScanFailedMessageConstant, zap.Error(secretScanError))
		secretsReport = nil
	}

	var policySection *PolicySection
	if auditedPolicy != nil {
		policySection = builder.evaluatePolicy(root, inventory, auditedPolicy)
	}

	var recentChanges []history.RevisionChangeSet
	if builder.historyProvider != nil {
		walkedChanges, walkError := builder.historyProvider.Walk(executionContext, history.WalkOptions{Limit: defaultHistoryLimitConstant, Policy: auditedPolicy})
		if walkError != nil {
			builder.logger.Debug(historySkippedMessageConstant, zap.Error(walkError))
		} else {
			recentChanges = walkedChanges
		}
	}

	return Aggregate(overview, inventory, secretsReport, policySection, recentChanges), nil
}

func (builder *Builder) buildInventory(root string) (OverviewSection, []InventoryEntry, error) {
	discovered, discoveryError := discovery.DiscoverConfigFiles(root)
	if discoveryError != nil {
		return OverviewSection{}, nil, discoveryError
	}

	overview := OverviewSection{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Path:        root,
	}
	inventory := make([]InventoryEntry, 0, len(discovered.Files))
	for _, configurationPath := range discovered.Files {
		detectedFormat, formatError := normalize.DetectFormat(configurationPath)
		if formatError != nil {
			continue
		}
		switch detectedFormat {
		case normalize.FormatYAML:
			overview.YAMLCount++
		case normalize.FormatJSON:
			overview.JSONCount++
		case normalize.FormatTOML:
			overview.TOMLCount++
		}

		content, readError := os.ReadFile(configurationPath)
		if readError != nil {
			builder.logger.Warn(unreadableInventoryMessageConstant,
				zap.String(builderLogFieldPathConstant, configurationPath),
				zap.String(builderLogFieldReasonConstant, readError.Error()),
			)
			continue
		}
		contentHash := sha256.Sum256(content)
		inventory = append(inventory, InventoryEntry{
			Path:   configurationPath,
			Hash:   hex.EncodeToString(contentHash[:]),
			Format: string(detectedFormat),
		})
	}

	overview.TotalFiles = len(inventory)
	return overview, inventory, nil
}

// evaluatePolicy runs the policy over every parseable inventory file. Parse
// failures skip the file; the normalizer already reported them elsewhere.
func (builder *Builder) evaluatePolicy(root string, inventory []InventoryEntry, auditedPolicy *policy.Policy) *PolicySection {
	violations := make([]policy.Violation, 0)
	for _, entry := range inventory {
		content, readError := os.ReadFile(entry.Path)
		if readError != nil {
			continue
		}
		mapping, normalizeError := builder.normalizer.NormalizeFile(entry.Path, content)
		if normalizeError != nil {
			continue
		}
		violations = append(violations, policy.Evaluate(auditedPolicy, mapping, entry.Path)...)
	}
	return BuildPolicySection(auditedPolicy.Name, violations)
}
