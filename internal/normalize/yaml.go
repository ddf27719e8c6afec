package normalize

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/temirov/configtrace/internal/canonical"
)

const (
	yamlLocationTemplateConstant            = "line %d, column %d"
	yamlDuplicateKeyTemplateConstant        = "duplicate map key %q"
	yamlDepthExceededTemplateConstant       = "nesting depth exceeds the configured maximum of %d"
	yamlUnexpectedNodeTemplateConstant      = "unexpected node kind %d"
	yamlUnresolvedAliasReasonConstant       = "unresolved alias node"
	yamlNullTagConstant                     = "!!null"
	yamlBoolTagConstant                     = "!!bool"
	yamlIntTagConstant                      = "!!int"
	yamlFloatTagConstant                    = "!!float"
	yamlMapKeyScalarRequirementTemplate     = "map key must be a scalar, found kind %d"
	yamlScalarRequiredTemplateConstant      = "expected a scalar value, found kind %d"
	yamlScalarDecodeFailureTemplateConstant = "cannot interpret scalar %q as %s"
	yamlIntegerScalarDescriptionConstant    = "an integer"
	yamlBooleanScalarDescriptionConstant    = "a boolean"
)

func parseYAMLDocument(content []byte, maximumDepth int) (canonical.Value, error) {
	var documentNode yaml.Node
	if unmarshalError := yaml.Unmarshal(content, &documentNode); unmarshalError != nil {
		return canonical.Value{}, newParseError(FormatYAML, "", unmarshalError.Error(), unmarshalError)
	}

	if documentNode.Kind == 0 || len(documentNode.Content) == 0 {
		// An empty document normalizes to an empty map so that it still
		// produces a mapping with one empty-container entry.
		return canonical.Map(nil), nil
	}

	return buildYAMLValue(documentNode.Content[0], 0, maximumDepth)
}

func buildYAMLValue(node *yaml.Node, currentDepth int, maximumDepth int) (canonical.Value, error) {
	if currentDepth > maximumDepth {
		return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), fmt.Sprintf(yamlDepthExceededTemplateConstant, maximumDepth), nil)
	}

	switch node.Kind {
	case yaml.AliasNode:
		if node.Alias == nil {
			return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), yamlUnresolvedAliasReasonConstant, nil)
		}
		return buildYAMLValue(node.Alias, currentDepth, maximumDepth)
	case yaml.ScalarNode:
		return buildYAMLScalar(node)
	case yaml.SequenceNode:
		elements := make([]canonical.Value, 0, len(node.Content))
		for _, elementNode := range node.Content {
			elementValue, elementError := buildYAMLValue(elementNode, currentDepth+1, maximumDepth)
			if elementError != nil {
				return canonical.Value{}, elementError
			}
			elements = append(elements, elementValue)
		}
		return canonical.List(elements), nil
	case yaml.MappingNode:
		entries := make([]canonical.MapEntry, 0, len(node.Content)/2)
		seenKeys := make(map[string]struct{}, len(node.Content)/2)
		for contentIndex := 0; contentIndex+1 < len(node.Content); contentIndex += 2 {
			keyNode := node.Content[contentIndex]
			valueNode := node.Content[contentIndex+1]
			if keyNode.Kind != yaml.ScalarNode {
				return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(keyNode), fmt.Sprintf(yamlMapKeyScalarRequirementTemplate, keyNode.Kind), nil)
			}
			if _, duplicate := seenKeys[keyNode.Value]; duplicate {
				return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(keyNode), fmt.Sprintf(yamlDuplicateKeyTemplateConstant, keyNode.Value), nil)
			}
			seenKeys[keyNode.Value] = struct{}{}

			entryValue, entryError := buildYAMLValue(valueNode, currentDepth+1, maximumDepth)
			if entryError != nil {
				return canonical.Value{}, entryError
			}
			entries = append(entries, canonical.MapEntry{Key: keyNode.Value, Value: entryValue})
		}
		return canonical.Map(entries), nil
	default:
		return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), fmt.Sprintf(yamlUnexpectedNodeTemplateConstant, node.Kind), nil)
	}
}

// buildYAMLScalar maps resolved YAML scalar tags onto canonical kinds.
// Timestamps and every other format-specific scalar degrade to String.
func buildYAMLScalar(node *yaml.Node) (canonical.Value, error) {
	switch node.Tag {
	case yamlNullTagConstant:
		return canonical.Null(), nil
	case yamlBoolTagConstant:
		var boolValue bool
		if decodeError := node.Decode(&boolValue); decodeError != nil {
			return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), fmt.Sprintf(yamlScalarDecodeFailureTemplateConstant, node.Value, yamlBooleanScalarDescriptionConstant), decodeError)
		}
		return canonical.Bool(boolValue), nil
	case yamlIntTagConstant:
		if numberValue, numberError := canonical.Number(node.Value); numberError == nil {
			return numberValue, nil
		}
		var integerValue int64
		if decodeError := node.Decode(&integerValue); decodeError != nil {
			return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), fmt.Sprintf(yamlScalarDecodeFailureTemplateConstant, node.Value, yamlIntegerScalarDescriptionConstant), decodeError)
		}
		return canonical.NumberFromInt(integerValue), nil
	case yamlFloatTagConstant:
		if numberValue, numberError := canonical.Number(node.Value); numberError == nil {
			return numberValue, nil
		}
		var floatValue float64
		if decodeError := node.Decode(&floatValue); decodeError != nil {
			return canonical.String(node.Value), nil
		}
		if math.IsInf(floatValue, 0) || math.IsNaN(floatValue) {
			// Infinities and NaN have no decimal form; keep the lexical text.
			return canonical.String(node.Value), nil
		}
		return canonical.NumberFromFloat(floatValue), nil
	default:
		return canonical.String(node.Value), nil
	}
}

// ScalarFromYAMLNode interprets one resolved YAML scalar node as a canonical
// value using the same tag rules as the YAML front end. The policy loader
// uses it so literal rule values carry the same types as normalized configs.
func ScalarFromYAMLNode(node *yaml.Node) (canonical.Value, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return ScalarFromYAMLNode(node.Alias)
	}
	if node.Kind != yaml.ScalarNode {
		return canonical.Value{}, newParseError(FormatYAML, yamlNodeLocation(node), fmt.Sprintf(yamlScalarRequiredTemplateConstant, node.Kind), nil)
	}
	return buildYAMLScalar(node)
}

func yamlNodeLocation(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	return fmt.Sprintf(yamlLocationTemplateConstant, node.Line, node.Column)
}
