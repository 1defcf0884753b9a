// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LogConfig
		wantErr bool
	}{
		{"console", types.LogConfig{Level: "info", Format: "console", Output: "console"}, false},
		{"json", types.LogConfig{Level: "debug", Format: "json", Output: "console"}, false},
		{"bad level", types.LogConfig{Level: "loud", Format: "json", Output: "console"}, true},
		{"bad format", types.LogConfig{Level: "info", Format: "xml", Output: "console"}, true},
		{"file without name", types.LogConfig{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := New(types.LogConfig{
		Level:  "info",
		Format: "json",
		Output: "file",
		File:   types.LogFileConfig{Filename: path, MaxSize: 1},
	})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
