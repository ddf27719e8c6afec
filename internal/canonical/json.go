package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	jsonValueEmptyInputReasonConstant  = "empty JSON value"
	jsonValueBadTokenTemplateConstant  = "unexpected JSON token %v"
	jsonValueBadKeyReasonConstant      = "object key is not a string"
	jsonValueBadNumberTemplateConstant = "invalid JSON number %q"
)

// MarshalJSON renders the value as native JSON so report structures embedding
// canonical values stay serialization-friendly. Numbers emit their normalized
// decimal form, and map entries keep their stored order.
func (value Value) MarshalJSON() ([]byte, error) {
	switch value.kind {
	case KindNull:
		return json.Marshal(nil)
	case KindBool:
		return json.Marshal(value.boolValue)
	case KindNumber:
		return []byte(renderRatio(value.numberRatio)), nil
	case KindString:
		return json.Marshal(value.stringValue)
	case KindList:
		if len(value.listElements) == 0 {
			return []byte(emptyListRenderedValueConstant), nil
		}
		return json.Marshal(value.listElements)
	case KindMap:
		var buffer bytes.Buffer
		buffer.WriteString(mapRenderedPrefixConstant)
		for entryIndex, entry := range value.mapEntries {
			if entryIndex > 0 {
				buffer.WriteByte(',')
			}
			encodedKey, keyError := json.Marshal(entry.Key)
			if keyError != nil {
				return nil, keyError
			}
			encodedValue, valueError := json.Marshal(entry.Value)
			if valueError != nil {
				return nil, valueError
			}
			buffer.Write(encodedKey)
			buffer.WriteByte(':')
			buffer.Write(encodedValue)
		}
		buffer.WriteString(mapRenderedSuffixConstant)
		return buffer.Bytes(), nil
	default:
		return json.Marshal(nil)
	}
}

// UnmarshalJSON rebuilds a canonical value from its JSON form, used when
// loading persisted snapshot files back into mappings.
func (value *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	decodedValue, decodeError := decodeValueToken(decoder)
	if decodeError != nil {
		return decodeError
	}

	*value = decodedValue
	return nil
}

func decodeValueToken(decoder *json.Decoder) (Value, error) {
	token, tokenError := decoder.Token()
	if tokenError == io.EOF {
		return Value{}, fmt.Errorf(jsonValueEmptyInputReasonConstant)
	}
	if tokenError != nil {
		return Value{}, tokenError
	}

	switch typedToken := token.(type) {
	case json.Delim:
		switch rune(typedToken) {
		case '{':
			entries := make([]MapEntry, 0)
			for decoder.More() {
				keyToken, keyError := decoder.Token()
				if keyError != nil {
					return Value{}, keyError
				}
				objectKey, keyIsString := keyToken.(string)
				if !keyIsString {
					return Value{}, fmt.Errorf(jsonValueBadKeyReasonConstant)
				}
				memberValue, memberError := decodeValueToken(decoder)
				if memberError != nil {
					return Value{}, memberError
				}
				entries = append(entries, MapEntry{Key: objectKey, Value: memberValue})
			}
			if _, closingError := decoder.Token(); closingError != nil {
				return Value{}, closingError
			}
			return Map(entries), nil
		case '[':
			elements := make([]Value, 0)
			for decoder.More() {
				elementValue, elementError := decodeValueToken(decoder)
				if elementError != nil {
					return Value{}, elementError
				}
				elements = append(elements, elementValue)
			}
			if _, closingError := decoder.Token(); closingError != nil {
				return Value{}, closingError
			}
			return List(elements), nil
		default:
			return Value{}, fmt.Errorf(jsonValueBadTokenTemplateConstant, typedToken)
		}
	case string:
		return String(typedToken), nil
	case json.Number:
		numberValue, numberError := Number(typedToken.String())
		if numberError != nil {
			return Value{}, fmt.Errorf(jsonValueBadNumberTemplateConstant, typedToken.String())
		}
		return numberValue, nil
	case bool:
		return Bool(typedToken), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf(jsonValueBadTokenTemplateConstant, token)
	}
}
