package canonical

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	nullRenderedValueConstant         = "null"
	trueRenderedValueConstant         = "true"
	falseRenderedValueConstant        = "false"
	emptyListRenderedValueConstant    = "[]"
	emptyMapRenderedValueConstant     = "{}"
	listRenderedPrefixConstant        = "["
	listRenderedSuffixConstant        = "]"
	mapRenderedPrefixConstant         = "{"
	mapRenderedSuffixConstant         = "}"
	renderedElementSeparatorConstant  = ", "
	mapRenderedKeyValueJoinConstant   = ": "
	invalidNumberTemplateConstant     = "invalid decimal number %q"
	fractionalRenderPrecisionConstant = 24
	fractionalTrimCutsetConstant      = "0"
	fractionalSeparatorConstant       = "."
)

// Kind identifies the variant stored inside a Value.
type Kind int

// Supported value kinds. The set is closed: every consumer switches
// exhaustively over these constants.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
}

// String returns the lowercase name of the kind.
func (kind Kind) String() string {
	if name, known := kindNames[kind]; known {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(kind))
}

// MapEntry pairs one map key with its value while preserving source order.
type MapEntry struct {
	Key   string
	Value Value
}

// Value is the format-agnostic representation every supported configuration
// format parses into. Exactly one variant is populated, selected by Kind.
type Value struct {
	kind         Kind
	boolValue    bool
	numberText   string
	numberRatio  *big.Rat
	stringValue  string
	listElements []Value
	mapEntries   []MapEntry
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool wraps a boolean leaf.
func Bool(value bool) Value {
	return Value{kind: KindBool, boolValue: value}
}

// String wraps a string leaf.
func String(value string) Value {
	return Value{kind: KindString, stringValue: value}
}

// Number parses the supplied decimal text into a numeric leaf. The original
// lexical form is retained so rendering matches the source document, while
// comparisons use the normalized decimal value (1.0 equals 1).
func Number(decimalText string) (Value, error) {
	ratio, parsed := new(big.Rat).SetString(strings.TrimSpace(decimalText))
	if !parsed {
		return Value{}, fmt.Errorf(invalidNumberTemplateConstant, decimalText)
	}
	return Value{kind: KindNumber, numberText: strings.TrimSpace(decimalText), numberRatio: ratio}, nil
}

// NumberFromInt wraps an integer leaf without a parsing round trip.
func NumberFromInt(value int64) Value {
	ratio := new(big.Rat).SetInt64(value)
	return Value{kind: KindNumber, numberText: ratio.RatString(), numberRatio: ratio}
}

// NumberFromFloat wraps a floating-point leaf. The float is rendered to its
// shortest round-trip decimal first so the stored number compares equal to
// the decimal literal an author would write (1.1, not the exact binary
// expansion of the nearest float64).
func NumberFromFloat(value float64) Value {
	decimalText := strconv.FormatFloat(value, 'g', -1, 64)
	numberValue, parseError := Number(decimalText)
	if parseError != nil {
		ratio := new(big.Rat)
		return Value{kind: KindNumber, numberText: renderRatio(ratio), numberRatio: ratio}
	}
	return numberValue
}

// List wraps an ordered sequence of values.
func List(elements []Value) Value {
	return Value{kind: KindList, listElements: elements}
}

// Map wraps an ordered sequence of key/value entries. Callers guarantee key
// uniqueness; the normalizer rejects duplicate keys before values are built.
func Map(entries []MapEntry) Value {
	return Value{kind: KindMap, mapEntries: entries}
}

// Kind reports which variant the value holds.
func (value Value) Kind() Kind {
	return value.kind
}

// IsContainer reports whether the value is a list or a map.
func (value Value) IsContainer() bool {
	return value.kind == KindList || value.kind == KindMap
}

// BoolValue returns the boolean payload. Valid only for KindBool.
func (value Value) BoolValue() bool {
	return value.boolValue
}

// StringValue returns the string payload. Valid only for KindString.
func (value Value) StringValue() string {
	return value.stringValue
}

// NumberText returns the lexical form the number was built from.
func (value Value) NumberText() string {
	return value.numberText
}

// ListElements returns the ordered list payload. Valid only for KindList.
func (value Value) ListElements() []Value {
	return value.listElements
}

// MapEntries returns the ordered map payload. Valid only for KindMap.
func (value Value) MapEntries() []MapEntry {
	return value.mapEntries
}

// Equal reports structural equality: the kinds must match and the payloads
// must match. Numbers compare by normalized decimal value, strings compare
// byte for byte, so the string "20" never equals the number 20.
func Equal(first Value, second Value) bool {
	if first.kind != second.kind {
		return false
	}

	switch first.kind {
	case KindNull:
		return true
	case KindBool:
		return first.boolValue == second.boolValue
	case KindNumber:
		return first.numberRatio.Cmp(second.numberRatio) == 0
	case KindString:
		return first.stringValue == second.stringValue
	case KindList:
		if len(first.listElements) != len(second.listElements) {
			return false
		}
		for elementIndex := range first.listElements {
			if !Equal(first.listElements[elementIndex], second.listElements[elementIndex]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(first.mapEntries) != len(second.mapEntries) {
			return false
		}
		for entryIndex := range first.mapEntries {
			if first.mapEntries[entryIndex].Key != second.mapEntries[entryIndex].Key {
				return false
			}
			if !Equal(first.mapEntries[entryIndex].Value, second.mapEntries[entryIndex].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Render produces a stable human-readable representation used in change
// listings and violation messages. Numbers render in normalized decimal form
// independent of their source lexical spelling.
func Render(value Value) string {
	switch value.kind {
	case KindNull:
		return nullRenderedValueConstant
	case KindBool:
		if value.boolValue {
			return trueRenderedValueConstant
		}
		return falseRenderedValueConstant
	case KindNumber:
		return renderRatio(value.numberRatio)
	case KindString:
		return value.stringValue
	case KindList:
		if len(value.listElements) == 0 {
			return emptyListRenderedValueConstant
		}
		renderedElements := make([]string, 0, len(value.listElements))
		for _, element := range value.listElements {
			renderedElements = append(renderedElements, Render(element))
		}
		return listRenderedPrefixConstant + strings.Join(renderedElements, renderedElementSeparatorConstant) + listRenderedSuffixConstant
	case KindMap:
		if len(value.mapEntries) == 0 {
			return emptyMapRenderedValueConstant
		}
		renderedEntries := make([]string, 0, len(value.mapEntries))
		for _, entry := range value.mapEntries {
			renderedEntries = append(renderedEntries, entry.Key+mapRenderedKeyValueJoinConstant+Render(entry.Value))
		}
		return mapRenderedPrefixConstant + strings.Join(renderedEntries, renderedElementSeparatorConstant) + mapRenderedSuffixConstant
	default:
		return ""
	}
}

func renderRatio(ratio *big.Rat) string {
	if ratio == nil {
		return ""
	}
	if ratio.IsInt() {
		return ratio.Num().String()
	}
	rendered := ratio.FloatString(fractionalRenderPrecisionConstant)
	rendered = strings.TrimRight(rendered, fractionalTrimCutsetConstant)
	rendered = strings.TrimSuffix(rendered, fractionalSeparatorConstant)
	return rendered
}
