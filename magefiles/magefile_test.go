//go:build mage

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountGoLines(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("pkg/a.go", "package pkg\n\nfunc A() {}\n")
	write("pkg/a_test.go", "package pkg\n\n\nfunc TestA() {}\n")
	write("README.md", "lots of words that are not code\n")
	write("_examples/x/x.go", "package x\n")
	write(".hidden/y.go", "package y\n")

	counts, err := countGoLines(root)
	require.NoError(t, err)
	assert.Equal(t, map[string]lineCount{filepath.Join(root, "pkg"): {prod: 2, test: 2}}, counts)
}
