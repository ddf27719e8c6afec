package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/configtrace/internal/discovery"
)

func writeTestFile(testInstance *testing.T, filePath string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
}

func TestDiscoverConfigFilesReturnsSortedConfigurationPaths(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTestFile(testInstance, filepath.Join(rootDirectory, "z", "service.toml"), "port = 1\n")
	writeTestFile(testInstance, filepath.Join(rootDirectory, "a", "app.yaml"), "key: value\n")
	writeTestFile(testInstance, filepath.Join(rootDirectory, "feature.json"), "{}")
	writeTestFile(testInstance, filepath.Join(rootDirectory, "notes.txt"), "ignored")

	result, discoveryError := discovery.DiscoverConfigFiles(rootDirectory)
	require.NoError(testInstance, discoveryError)
	require.Empty(testInstance, result.Issues)
	require.Equal(testInstance, []string{
		filepath.Join(rootDirectory, "a", "app.yaml"),
		filepath.Join(rootDirectory, "feature.json"),
		filepath.Join(rootDirectory, "z", "service.toml"),
	}, result.Files)
}

func TestDiscoverConfigFilesAcceptsSingleFileRoot(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(rootDirectory, "app.yml")
	writeTestFile(testInstance, configurationPath, "key: value\n")

	result, discoveryError := discovery.DiscoverConfigFiles(configurationPath)
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{configurationPath}, result.Files)
}

func TestDiscoverConfigFilesRejectsMissingRoot(testInstance *testing.T) {
	_, discoveryError := discovery.DiscoverConfigFiles(filepath.Join(testInstance.TempDir(), "absent"))
	require.Error(testInstance, discoveryError)
}
