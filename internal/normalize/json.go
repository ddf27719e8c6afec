package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/configtrace/internal/canonical"
)

const (
	jsonLocationTemplateConstant              = "offset %d"
	jsonEmptyDocumentReasonConstant           = "document contains no content"
	jsonTrailingContentReasonConstant         = "unexpected content after top-level value"
	jsonDuplicateKeyTemplateConstant          = "duplicate object key %q"
	jsonDepthExceededTemplateConstant         = "nesting depth exceeds the configured maximum of %d"
	jsonUnexpectedTokenTemplateConstant       = "unexpected token %v"
	jsonObjectKeyTypeReasonConstant           = "object key is not a string"
	jsonObjectOpenDelimiterConstant           = '{'
	jsonArrayOpenDelimiterConstant            = '['
	jsonInvalidNumberTemplateConstant         = "invalid number literal %q"
	jsonMissingClosingDelimiterReasonConstant = "missing closing delimiter"
)

// parseJSONDocument walks the token stream directly instead of unmarshalling
// into map[string]any, which would lose object key order and silently accept
// duplicate keys.
func parseJSONDocument(content []byte, maximumDepth int) (canonical.Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	rootValue, decodeError := decodeJSONValue(decoder, 0, maximumDepth)
	if decodeError != nil {
		return canonical.Value{}, decodeError
	}

	if _, trailingError := decoder.Token(); trailingError != io.EOF {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), jsonTrailingContentReasonConstant, nil)
	}

	return rootValue, nil
}

func decodeJSONValue(decoder *json.Decoder, currentDepth int, maximumDepth int) (canonical.Value, error) {
	if currentDepth > maximumDepth {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), fmt.Sprintf(jsonDepthExceededTemplateConstant, maximumDepth), nil)
	}

	token, tokenError := decoder.Token()
	if tokenError == io.EOF {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), jsonEmptyDocumentReasonConstant, tokenError)
	}
	if tokenError != nil {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), tokenError.Error(), tokenError)
	}

	switch typedToken := token.(type) {
	case json.Delim:
		switch rune(typedToken) {
		case jsonObjectOpenDelimiterConstant:
			return decodeJSONObject(decoder, currentDepth, maximumDepth)
		case jsonArrayOpenDelimiterConstant:
			return decodeJSONArray(decoder, currentDepth, maximumDepth)
		default:
			return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), fmt.Sprintf(jsonUnexpectedTokenTemplateConstant, typedToken), nil)
		}
	case string:
		return canonical.String(typedToken), nil
	case json.Number:
		numberValue, numberError := canonical.Number(typedToken.String())
		if numberError != nil {
			return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), fmt.Sprintf(jsonInvalidNumberTemplateConstant, typedToken.String()), numberError)
		}
		return numberValue, nil
	case bool:
		return canonical.Bool(typedToken), nil
	case nil:
		return canonical.Null(), nil
	default:
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), fmt.Sprintf(jsonUnexpectedTokenTemplateConstant, token), nil)
	}
}

func decodeJSONObject(decoder *json.Decoder, currentDepth int, maximumDepth int) (canonical.Value, error) {
	entries := make([]canonical.MapEntry, 0)
	seenKeys := make(map[string]struct{})

	for decoder.More() {
		keyToken, keyError := decoder.Token()
		if keyError != nil {
			return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), keyError.Error(), keyError)
		}
		objectKey, keyIsString := keyToken.(string)
		if !keyIsString {
			return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), jsonObjectKeyTypeReasonConstant, nil)
		}
		if _, duplicate := seenKeys[objectKey]; duplicate {
			return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), fmt.Sprintf(jsonDuplicateKeyTemplateConstant, objectKey), nil)
		}
		seenKeys[objectKey] = struct{}{}

		memberValue, memberError := decodeJSONValue(decoder, currentDepth+1, maximumDepth)
		if memberError != nil {
			return canonical.Value{}, memberError
		}
		entries = append(entries, canonical.MapEntry{Key: objectKey, Value: memberValue})
	}

	if _, closingError := decoder.Token(); closingError != nil {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), jsonMissingClosingDelimiterReasonConstant, closingError)
	}

	return canonical.Map(entries), nil
}

func decodeJSONArray(decoder *json.Decoder, currentDepth int, maximumDepth int) (canonical.Value, error) {
	elements := make([]canonical.Value, 0)

	for decoder.More() {
		elementValue, elementError := decodeJSONValue(decoder, currentDepth+1, maximumDepth)
		if elementError != nil {
			return canonical.Value{}, elementError
		}
		elements = append(elements, elementValue)
	}

	if _, closingError := decoder.Token(); closingError != nil {
		return canonical.Value{}, newParseError(FormatJSON, jsonDecoderLocation(decoder), jsonMissingClosingDelimiterReasonConstant, closingError)
	}

	return canonical.List(elements), nil
}

func jsonDecoderLocation(decoder *json.Decoder) string {
	return fmt.Sprintf(jsonLocationTemplateConstant, decoder.InputOffset())
}
