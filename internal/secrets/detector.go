package secrets

import (
	"strings"

	"github.com/temirov/configtrace/internal/policy"
)

const (
	redactedPlaceholderConstant  = "..."
	redactedPrefixLengthConstant = 4
	snippetContextLengthConstant = 10
	hashCommentPrefixConstant    = "#"
	slashCommentPrefixConstant   = "//"
	newlineSeparatorConstant     = "\n"
)

// placeholderMarkers flag lines that contain template syntax or documented
// example values rather than live credentials.
var placeholderMarkers = []string{
	"example.com",
	"localhost",
	"127.0.0.1",
	"REPLACE_ME",
	"YOUR_KEY_HERE",
	"XXX",
	"${",
	"{{",
	"%",
}

// Finding records one suspected credential in a scanned file. The snippet is
// redacted: at most the first four characters of the match survive.
type Finding struct {
	Type     SecretType      `json:"secret_type"`
	Severity policy.Severity `json:"severity"`
	Line     int             `json:"line"`
	Snippet  string          `json:"snippet"`
	Pattern  string          `json:"matched_pattern"`
}

// DetectInContent scans text line by line against the pattern catalog.
// Comment lines and lines carrying placeholder markers are skipped before
// any pattern runs.
func DetectInContent(content []byte) []Finding {
	findings := make([]Finding, 0)
	for lineIndex, lineText := range strings.Split(string(content), newlineSeparatorConstant) {
		if shouldSkipLine(lineText) {
			continue
		}
		for _, candidatePattern := range secretPatternCatalog {
			matchLocation := candidatePattern.Expression.FindStringIndex(lineText)
			if matchLocation == nil {
				continue
			}
			findings = append(findings, Finding{
				Type:     candidatePattern.Type,
				Severity: candidatePattern.Severity,
				Line:     lineIndex + 1,
				Snippet:  buildRedactedSnippet(lineText, matchLocation[0], matchLocation[1]),
				Pattern:  candidatePattern.Name,
			})
		}
	}
	return findings
}

func shouldSkipLine(lineText string) bool {
	trimmedLine := strings.TrimSpace(lineText)
	if len(trimmedLine) == 0 {
		return true
	}
	if strings.HasPrefix(trimmedLine, hashCommentPrefixConstant) || strings.HasPrefix(trimmedLine, slashCommentPrefixConstant) {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(trimmedLine, marker) {
			return true
		}
	}
	return false
}

// buildRedactedSnippet keeps a little surrounding context but replaces the
// matched credential with its first four characters and an ellipsis.
func buildRedactedSnippet(lineText string, matchStart int, matchEnd int) string {
	redactedMatch := redactedPlaceholderConstant
	if matchEnd-matchStart > redactedPrefixLengthConstant {
		redactedMatch = lineText[matchStart:matchStart+redactedPrefixLengthConstant] + redactedPlaceholderConstant
	}

	contextStart := matchStart - snippetContextLengthConstant
	if contextStart < 0 {
		contextStart = 0
	}
	contextEnd := matchEnd + snippetContextLengthConstant
	if contextEnd > len(lineText) {
		contextEnd = len(lineText)
	}

	return lineText[contextStart:matchStart] + redactedMatch + lineText[matchEnd:contextEnd]
}
