package secrets

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/configtrace/internal/discovery"
	"github.com/temirov/configtrace/internal/policy"
)

const (
	unreadableFileMessageConstant = "skipping unreadable file"
	logFieldPathConstant          = "path"
	logFieldReasonConstant        = "reason"
)

// FileFindings groups the findings of one scanned file.
type FileFindings struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// Report summarizes one secret scan over a directory tree.
type Report struct {
	ScannedAt        string         `json:"scanned_at"`
	TotalFiles       int            `json:"total_files"`
	FilesWithSecrets int            `json:"files_with_secrets"`
	TotalFindings    int            `json:"total_findings"`
	CriticalCount    int            `json:"critical_count"`
	HighCount        int            `json:"high_count"`
	Files            []FileFindings `json:"files"`
}

// HasFindings reports whether the scan surfaced any suspected credential.
func (report Report) HasFindings() bool {
	return report.TotalFindings > 0
}

// Scanner walks configuration files under a root and runs the detection
// catalog over each. Unreadable files are logged and skipped.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner constructs a Scanner; a nil logger falls back to a no-op one.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger}
}

// ScanDirectory discovers configuration files under root and scans each for
// secrets. Only an unreachable root is fatal.
func (scanner *Scanner) ScanDirectory(root string) (*Report, error) {
	discovered, discoveryError := discovery.DiscoverConfigFiles(root)
	if discoveryError != nil {
		return nil, discoveryError
	}

	report := &Report{
		ScannedAt: time.Now().UTC().Format(time.RFC3339),
		Files:     make([]FileFindings, 0),
	}

	for _, configurationPath := range discovered.Files {
		report.TotalFiles++

		content, readError := os.ReadFile(configurationPath)
		if readError != nil {
			scanner.logger.Warn(unreadableFileMessageConstant,
				zap.String(logFieldPathConstant, configurationPath),
				zap.String(logFieldReasonConstant, readError.Error()),
			)
			continue
		}

		findings := DetectInContent(content)
		if len(findings) == 0 {
			continue
		}

		for _, finding := range findings {
			report.TotalFindings++
			switch finding.Severity {
			case policy.SeverityCritical:
				report.CriticalCount++
			case policy.SeverityHigh:
				report.HighCount++
			}
		}
		report.Files = append(report.Files, FileFindings{Path: configurationPath, Findings: findings})
	}

	report.FilesWithSecrets = len(report.Files)
	return report, nil
}
