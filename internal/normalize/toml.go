package normalize

import (
	"errors"
	"fmt"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/temirov/configtrace/internal/canonical"
)

const (
	tomlLocationTemplateConstant         = "line %d, column %d"
	tomlDepthExceededTemplateConstant    = "nesting depth exceeds the configured maximum of %d"
	tomlUnsupportedValueTemplateConstant = "unsupported TOML value of type %T"
	tomlInvalidNumberTemplateConstant    = "invalid number literal %v"
)

// parseTOMLDocument decodes TOML through pelletier/go-toml. The library hands
// back unordered maps, so table keys are ordered lexicographically in the
// canonical tree; flattened output is sorted anyway, so diff and policy
// results are unaffected. Datetime values degrade to String.
func parseTOMLDocument(content []byte, maximumDepth int) (canonical.Value, error) {
	var decoded map[string]interface{}
	if unmarshalError := toml.Unmarshal(content, &decoded); unmarshalError != nil {
		return canonical.Value{}, newParseError(FormatTOML, tomlErrorLocation(unmarshalError), unmarshalError.Error(), unmarshalError)
	}

	return convertTOMLValue(decoded, 0, maximumDepth)
}

func convertTOMLValue(rawValue interface{}, currentDepth int, maximumDepth int) (canonical.Value, error) {
	if currentDepth > maximumDepth {
		return canonical.Value{}, newParseError(FormatTOML, "", fmt.Sprintf(tomlDepthExceededTemplateConstant, maximumDepth), nil)
	}

	switch typedValue := rawValue.(type) {
	case nil:
		return canonical.Null(), nil
	case bool:
		return canonical.Bool(typedValue), nil
	case string:
		return canonical.String(typedValue), nil
	case int64:
		return canonical.NumberFromInt(typedValue), nil
	case float64:
		return canonical.NumberFromFloat(typedValue), nil
	case time.Time:
		return canonical.String(typedValue.Format(time.RFC3339)), nil
	case toml.LocalDate:
		return canonical.String(typedValue.String()), nil
	case toml.LocalTime:
		return canonical.String(typedValue.String()), nil
	case toml.LocalDateTime:
		return canonical.String(typedValue.String()), nil
	case []interface{}:
		elements := make([]canonical.Value, 0, len(typedValue))
		for _, rawElement := range typedValue {
			elementValue, elementError := convertTOMLValue(rawElement, currentDepth+1, maximumDepth)
			if elementError != nil {
				return canonical.Value{}, elementError
			}
			elements = append(elements, elementValue)
		}
		return canonical.List(elements), nil
	case map[string]interface{}:
		tableKeys := make([]string, 0, len(typedValue))
		for tableKey := range typedValue {
			tableKeys = append(tableKeys, tableKey)
		}
		sort.Strings(tableKeys)

		entries := make([]canonical.MapEntry, 0, len(tableKeys))
		for _, tableKey := range tableKeys {
			entryValue, entryError := convertTOMLValue(typedValue[tableKey], currentDepth+1, maximumDepth)
			if entryError != nil {
				return canonical.Value{}, entryError
			}
			entries = append(entries, canonical.MapEntry{Key: tableKey, Value: entryValue})
		}
		return canonical.Map(entries), nil
	default:
		return canonical.Value{}, newParseError(FormatTOML, "", fmt.Sprintf(tomlUnsupportedValueTemplateConstant, rawValue), nil)
	}
}

func tomlErrorLocation(unmarshalError error) string {
	var decodeError *toml.DecodeError
	if errors.As(unmarshalError, &decodeError) {
		row, column := decodeError.Position()
		return fmt.Sprintf(tomlLocationTemplateConstant, row, column)
	}
	return ""
}
