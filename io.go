// File: lixenwraith/settings/io.go
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Save exports the resolved fields to a TOML file atomically. It is an
// explicit snapshot export: retrievers are never written back, and a file
// a FileRetriever watches is only replaced if path names it.
func (s *Settings) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Dump(&buf); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// SaveDirect exports only the fields set directly on this instance, so the
// file can later be loaded back through a FileRetriever as overrides.
// Like Save, it writes nowhere but path.
func (s *Settings) SaveDirect(path string) error {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name, v := range s.values {
		if _, isField := s.class.fields[name]; isField && v != nil && v != Default {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	nested := make(map[string]any)
	for _, name := range names {
		setNestedValue(nested, name, s.values[name])
	}
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(nested); err != nil {
		return fmt.Errorf("failed to encode settings as TOML: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
