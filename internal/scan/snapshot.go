package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/temirov/configtrace/internal/canonical"
	"github.com/temirov/configtrace/internal/diffengine"
	"github.com/temirov/configtrace/internal/discovery"
	"github.com/temirov/configtrace/internal/normalize"
)

const (
	snapshotFormatVersionConstant     = 1
	snapshotFileModeConstant          = 0o644
	snapshotReadTemplateConstant      = "cannot read snapshot %q: %w"
	snapshotDecodeTemplateConstant    = "cannot decode snapshot %q: %w"
	snapshotWriteTemplateConstant     = "cannot write snapshot %q: %w"
	snapshotVersionTemplateConstant   = "unsupported snapshot version %d in %q"
	configurationReadTemplateConstant = "cannot read %q: %w"
)

// InventoryEntry records one configuration file's content hash at scan time.
type InventoryEntry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Snapshot persists the result of one scan: the file inventory plus each
// file's flattened mapping, so a later comparison can reuse the snapshot as
// its old side without re-parsing the tree. Files that failed to parse keep
// an inventory entry and record the failure instead of a mapping.
type Snapshot struct {
	Version       int                          `json:"version"`
	CreatedAt     string                       `json:"created_at"`
	Entries       []InventoryEntry             `json:"entries"`
	Mappings      map[string]canonical.Mapping `json:"mappings"`
	ParseFailures map[string]string            `json:"parse_failures,omitempty"`
}

// FileDifference classifies one file-level change between two snapshots.
// Key-level changes travel alongside when both sides parsed.
type FileDifference struct {
	Path    string                `json:"path"`
	Kind    diffengine.ChangeKind `json:"kind"`
	Changes []diffengine.Change   `json:"changes,omitempty"`
}

// BuildSnapshot scans root for configuration files, hashing and normalizing
// each one. A file that cannot be parsed contributes an inventory entry and
// a parse failure; only an unreachable root or file is fatal.
func BuildSnapshot(root string, normalizer *normalize.Normalizer) (*Snapshot, error) {
	discovered, discoveryError := discovery.DiscoverConfigFiles(root)
	if discoveryError != nil {
		return nil, discoveryError
	}

	snapshot := &Snapshot{
		Version:       snapshotFormatVersionConstant,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Entries:       make([]InventoryEntry, 0, len(discovered.Files)),
		Mappings:      make(map[string]canonical.Mapping),
		ParseFailures: make(map[string]string),
	}

	for _, configurationPath := range discovered.Files {
		content, readError := os.ReadFile(configurationPath)
		if readError != nil {
			return nil, fmt.Errorf(configurationReadTemplateConstant, configurationPath, readError)
		}

		contentHash := sha256.Sum256(content)
		snapshot.Entries = append(snapshot.Entries, InventoryEntry{
			Path: configurationPath,
			Hash: hex.EncodeToString(contentHash[:]),
		})

		mapping, normalizeError := normalizer.NormalizeFile(configurationPath, content)
		if normalizeError != nil {
			snapshot.ParseFailures[configurationPath] = normalizeError.Error()
			continue
		}
		snapshot.Mappings[configurationPath] = mapping
	}

	if len(snapshot.ParseFailures) == 0 {
		snapshot.ParseFailures = nil
	}
	return snapshot, nil
}

// WriteSnapshot serializes the snapshot to disk as indented JSON.
func WriteSnapshot(snapshot *Snapshot, outputPath string) error {
	encoded, encodeError := json.MarshalIndent(snapshot, "", "  ")
	if encodeError != nil {
		return fmt.Errorf(snapshotWriteTemplateConstant, outputPath, encodeError)
	}
	if writeError := os.WriteFile(outputPath, encoded, snapshotFileModeConstant); writeError != nil {
		return fmt.Errorf(snapshotWriteTemplateConstant, outputPath, writeError)
	}
	return nil
}

// LoadSnapshot reads a snapshot back from disk, rejecting unknown format
// versions.
func LoadSnapshot(snapshotPath string) (*Snapshot, error) {
	content, readError := os.ReadFile(snapshotPath)
	if readError != nil {
		return nil, fmt.Errorf(snapshotReadTemplateConstant, snapshotPath, readError)
	}

	var snapshot Snapshot
	if decodeError := json.Unmarshal(content, &snapshot); decodeError != nil {
		return nil, fmt.Errorf(snapshotDecodeTemplateConstant, snapshotPath, decodeError)
	}
	if snapshot.Version != snapshotFormatVersionConstant {
		return nil, fmt.Errorf(snapshotVersionTemplateConstant, snapshot.Version, snapshotPath)
	}
	return &snapshot, nil
}

// CompareSnapshots reports file-level additions, removals, and changes
// between two snapshots. Key-level changes attach only to files present on
// both sides; files that exist on one side alone surface as a single Added
// or Removed difference without per-key expansion. Results are sorted by
// path.
func CompareSnapshots(oldSnapshot *Snapshot, newSnapshot *Snapshot) []FileDifference {
	oldHashes := hashesByPath(oldSnapshot)
	newHashes := hashesByPath(newSnapshot)

	differences := make([]FileDifference, 0)
	for path, newHash := range newHashes {
		oldHash, existedBefore := oldHashes[path]
		if !existedBefore {
			differences = append(differences, FileDifference{
				Path: path,
				Kind: diffengine.ChangeKindAdded,
			})
			continue
		}
		if oldHash == newHash {
			continue
		}
		differences = append(differences, FileDifference{
			Path:    path,
			Kind:    diffengine.ChangeKindChanged,
			Changes: diffengine.Diff(oldSnapshot.Mappings[path], newSnapshot.Mappings[path]),
		})
	}
	for path := range oldHashes {
		if _, stillPresent := newHashes[path]; !stillPresent {
			differences = append(differences, FileDifference{
				Path: path,
				Kind: diffengine.ChangeKindRemoved,
			})
		}
	}

	sort.Slice(differences, func(firstIndex, secondIndex int) bool {
		return differences[firstIndex].Path < differences[secondIndex].Path
	})
	return differences
}

func hashesByPath(snapshot *Snapshot) map[string]string {
	hashes := make(map[string]string, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		hashes[entry.Path] = entry.Hash
	}
	return hashes
}
