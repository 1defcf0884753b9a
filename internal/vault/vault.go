// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vault writes conversations into a notes folder as Markdown files.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a vault rooted at a directory on disk. Paths passed to its methods
// are vault-relative and use forward slashes.
type Dir struct {
	Root string
}

// CreateFile writes content to a new file at p, creating parent folders.
// It fails if the file already exists.
func (d Dir) CreateFile(p, content string) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating folder for %s: %w", p, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", p, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return f.Close()
}

// ListFiles returns the vault-relative paths of the files directly inside
// folder, sorted. A missing folder has no files.
func (d Dir) ListFiles(folder string) ([]string, error) {
	full, err := d.resolve(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, path.Join(cleanFolder(folder), e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// resolve maps a vault-relative path onto disk. Leading ".." segments are
// dropped so the result always stays under Root.
func (d Dir) resolve(p string) (string, error) {
	if d.Root == "" {
		return "", fmt.Errorf("vault root is not set")
	}
	return filepath.Join(d.Root, filepath.FromSlash(cleanFolder(p))), nil
}

func cleanFolder(folder string) string {
	f := strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, "\\", "/")), "/")
	if f == "." {
		return ""
	}
	return f
}
