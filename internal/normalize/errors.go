package normalize

import "fmt"

const (
	parseErrorWithLocationTemplateConstant = "%s parse error at %s: %s"
	parseErrorTemplateConstant             = "%s parse error: %s"
)

// ParseError describes malformed or unsupported input for a declared format.
// It is recoverable per file: batch operations collect it and keep going.
type ParseError struct {
	Format   Format
	Location string
	Reason   string
	cause    error
}

// Error renders the format, location when known, and reason.
func (parseError *ParseError) Error() string {
	if len(parseError.Location) > 0 {
		return fmt.Sprintf(parseErrorWithLocationTemplateConstant, parseError.Format, parseError.Location, parseError.Reason)
	}
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Format, parseError.Reason)
}

// Unwrap exposes the underlying parser failure when one exists.
func (parseError *ParseError) Unwrap() error {
	return parseError.cause
}

func newParseError(format Format, location string, reason string, cause error) *ParseError {
	return &ParseError{Format: format, Location: location, Reason: reason, cause: cause}
}
