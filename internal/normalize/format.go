package normalize

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	yamlExtensionConstant             = ".yaml"
	yamlShortExtensionConstant        = ".yml"
	jsonExtensionConstant             = ".json"
	tomlExtensionConstant             = ".toml"
	unsupportedFormatTemplateConstant = "unsupported configuration format for %q"
)

// Format identifies one of the supported configuration serializations.
type Format string

// Supported configuration formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

var extensionFormatMapping = map[string]Format{
	yamlExtensionConstant:      FormatYAML,
	yamlShortExtensionConstant: FormatYAML,
	jsonExtensionConstant:      FormatJSON,
	tomlExtensionConstant:      FormatTOML,
}

// DetectFormat selects the format implied by the file extension. Callers that
// know better pass an explicit Format to Normalize instead.
func DetectFormat(filePath string) (Format, error) {
	extension := strings.ToLower(filepath.Ext(filePath))
	if format, supported := extensionFormatMapping[extension]; supported {
		return format, nil
	}
	return "", fmt.Errorf(unsupportedFormatTemplateConstant, filePath)
}

// IsConfigPath reports whether the path carries a supported config extension.
func IsConfigPath(filePath string) bool {
	_, detectionError := DetectFormat(filePath)
	return detectionError == nil
}
