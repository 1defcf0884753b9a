// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package settings persists the user settings blob as a YAML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// FileStore reads and writes settings at Path.
type FileStore struct {
	Path string

	// Keys supplies API keys that are not in the file, such as keys loaded
	// from the secrets directory. File values win.
	Keys map[types.ProviderID]string
}

// Load reads the settings file and merges it over types.DefaultSettings. A
// missing file yields the defaults.
func (f *FileStore) Load() (types.Settings, error) {
	s := types.DefaultSettings()

	data, err := os.ReadFile(f.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return types.Settings{}, fmt.Errorf("reading settings %s: %w", f.Path, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return types.Settings{}, fmt.Errorf("parsing settings %s: %w", f.Path, err)
		}
	}

	if s.APIKeys == nil {
		s.APIKeys = make(map[types.ProviderID]string)
	}
	for p, k := range f.Keys {
		if s.APIKeys[p] == "" {
			s.APIKeys[p] = k
		}
	}
	return s, nil
}

// Save writes s to the settings file, replacing it atomically. Keys that
// came from Keys are not written back.
func (f *FileStore) Save(s types.Settings) error {
	if len(f.Keys) > 0 && len(s.APIKeys) > 0 {
		keys := make(map[types.ProviderID]string, len(s.APIKeys))
		for p, k := range s.APIKeys {
			if f.Keys[p] != k {
				keys[p] = k
			}
		}
		s.APIKeys = keys
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replacing settings %s: %w", f.Path, err)
	}
	return nil
}
