package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// Candidate layout.
const (
	ManifestFile     = "plugin.yaml"
	LuaFile          = "effect.lua"
	SharedObjectFile = "effect.so"
	UIFile           = "ui.yaml"
	MetadataJSONFile = "metadata.json"
	MetadataYAMLFile = "metadata.yaml"
)

var optionalFiles = []string{LuaFile, SharedObjectFile, UIFile, MetadataJSONFile, MetadataYAMLFile}

// Manifest is the content of plugin.yaml. Both fields are optional.
type Manifest struct {
	// Module names a catalog module compiled into the binary.
	Module string `yaml:"module"`
	// Main overrides the code file, relative to the candidate directory.
	Main string `yaml:"main"`
}

// IsCandidate reports whether dir holds the manifest and at least one of
// the optional files.
func IsCandidate(dir string) bool {
	if !isFile(filepath.Join(dir, ManifestFile)) {
		return false
	}
	for _, name := range optionalFiles {
		if isFile(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

// readManifest parses plugin.yaml. A missing file yields an empty manifest.
func readManifest(dir string) (Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, pkgerrors.NewParseError(path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, pkgerrors.NewParseError(path, err)
	}
	return m, nil
}

// readMetadata loads metadata.json, falling back to metadata.yaml. It
// returns nil when neither exists.
func readMetadata(dir string) (map[string]any, error) {
	path := filepath.Join(dir, MetadataJSONFile)
	data, err := os.ReadFile(path)
	if err == nil {
		var extra map[string]any
		if err := json.Unmarshal(data, &extra); err != nil {
			return nil, pkgerrors.NewParseError(path, err)
		}
		return extra, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.NewParseError(path, err)
	}

	path = filepath.Join(dir, MetadataYAMLFile)
	data, err = os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewParseError(path, err)
	}
	var extra map[string]any
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, pkgerrors.NewParseError(path, err)
	}
	return extra, nil
}

type uiDocument struct {
	Groups       []effect.Group   `yaml:"groups"`
	Dependencies []map[string]any `yaml:"dependencies"`
}

// readUI loads ui.yaml into a static descriptor. It returns nil when the file
// does not exist.
func readUI(dir string) (effect.UIDescriptor, error) {
	path := filepath.Join(dir, UIFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewParseError(path, err)
	}

	var doc uiDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewParseError(path, err)
	}

	ui := &effect.StaticUI{GroupList: doc.Groups}
	for i, raw := range doc.Dependencies {
		rule, err := effect.RuleFromMap(raw)
		if err != nil {
			return nil, pkgerrors.NewParseError(path, fmt.Errorf("dependencies[%d]: %w", i, err))
		}
		ui.Rules = append(ui.Rules, rule)
	}
	return ui, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
