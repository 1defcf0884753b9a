// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider API keys from a directory of plain-text
// files, an optional .env file, and the process environment.
//
// Each file in the directory holds one secret: the filename is the key name
// and the trimmed contents are the value. Provider keys use the names
// gemini-api-key, perplexity-api-key, tavily-api-key, and exa-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	logger = logging.OrNop(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// FileName returns the key file name for provider p.
func FileName(p types.ProviderID) string {
	return string(p) + "-api-key"
}

// EnvName returns the environment variable holding the key for provider p.
func EnvName(p types.ProviderID) string {
	return strings.ToUpper(string(p)) + "_API_KEY"
}

// ProviderKeys collects an API key for every provider it can find. Sources
// in increasing precedence: key files in dir, variables in envFile, and the
// process environment. An empty envFile or a missing file is skipped.
func ProviderKeys(dir, envFile string, logger *zap.Logger) (map[types.ProviderID]string, error) {
	files, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}

	dotenv := map[string]string{}
	if envFile != "" {
		dotenv, err = godotenv.Read(envFile)
		if errors.Is(err, fs.ErrNotExist) {
			dotenv, err = map[string]string{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	keys := make(map[types.ProviderID]string)
	for _, p := range types.AllProviders() {
		v := files[FileName(p)]
		if d := strings.TrimSpace(dotenv[EnvName(p)]); d != "" {
			v = d
		}
		if e := strings.TrimSpace(os.Getenv(EnvName(p))); e != "" {
			v = e
		}
		if v != "" {
			keys[p] = v
		}
	}
	return keys, nil
}
