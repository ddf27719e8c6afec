package normalize

import (
	"fmt"

	"github.com/temirov/configtrace/internal/canonical"
)

const unknownFormatReasonTemplateConstant = "no parser registered for format %q"

// Normalizer parses raw configuration bytes into flattened canonical
// mappings, bounding nesting depth to defend against pathological documents.
type Normalizer struct {
	maximumDepth int
}

// NewNormalizer constructs a Normalizer with the supplied nesting limit.
// Non-positive limits fall back to the canonical default.
func NewNormalizer(maximumDepth int) *Normalizer {
	if maximumDepth <= 0 {
		maximumDepth = canonical.DefaultMaximumFlattenDepth
	}
	return &Normalizer{maximumDepth: maximumDepth}
}

// Normalize parses content of the declared format and flattens the resulting
// canonical tree. Failures are always *ParseError.
func (normalizer *Normalizer) Normalize(content []byte, format Format) (canonical.Mapping, error) {
	var rootValue canonical.Value
	var parseError error

	switch format {
	case FormatYAML:
		rootValue, parseError = parseYAMLDocument(content, normalizer.maximumDepth)
	case FormatJSON:
		rootValue, parseError = parseJSONDocument(content, normalizer.maximumDepth)
	case FormatTOML:
		rootValue, parseError = parseTOMLDocument(content, normalizer.maximumDepth)
	default:
		return nil, newParseError(format, "", fmt.Sprintf(unknownFormatReasonTemplateConstant, string(format)), nil)
	}

	if parseError != nil {
		return nil, parseError
	}

	mapping, flattenError := canonical.Flatten(rootValue, normalizer.maximumDepth)
	if flattenError != nil {
		return nil, newParseError(format, "", flattenError.Error(), flattenError)
	}

	return mapping, nil
}

// NormalizeFile parses content using the format implied by filePath.
func (normalizer *Normalizer) NormalizeFile(filePath string, content []byte) (canonical.Mapping, error) {
	format, detectionError := DetectFormat(filePath)
	if detectionError != nil {
		return nil, newParseError("", "", detectionError.Error(), detectionError)
	}
	return normalizer.Normalize(content, format)
}
