// FILE: lixenwraith/settings/loader.go
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatAuto = "auto"
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FileRetriever serves field values from a TOML, JSON or YAML file.
// Nested tables are addressed with dotted keys ("server.port"); a key that
// names a whole table yields the table as a map.
//
// The file is read on creation and on Reload or, when watched, whenever it
// changes. Reads always see the latest successfully loaded content.
type FileRetriever struct {
	path    string
	format  string
	maxSize int64
	logger  zerolog.Logger

	mu     sync.RWMutex
	nested map[string]any
	flat   map[string]any

	watchMu sync.Mutex
	watcher *watcher
}

// FileOption configures a FileRetriever.
type FileOption func(*FileRetriever)

// WithFormat forces the file format instead of detecting it.
func WithFormat(format string) FileOption {
	return func(r *FileRetriever) {
		r.format = format
	}
}

// WithMaxFileSize limits how many bytes are read. Zero or less disables the limit.
func WithMaxFileSize(n int64) FileOption {
	return func(r *FileRetriever) {
		r.maxSize = n
	}
}

// WithFileLogger sets the logger for load and reload events.
func WithFileLogger(logger zerolog.Logger) FileOption {
	return func(r *FileRetriever) {
		r.logger = logger
	}
}

// NewFileRetriever loads path. A missing file returns the (empty, usable)
// retriever together with an error wrapping ErrFileNotFound, so callers may
// treat absence as non-fatal. Other errors return a nil retriever.
func NewFileRetriever(path string, opts ...FileOption) (*FileRetriever, error) {
	r := &FileRetriever{
		path:    path,
		format:  FormatAuto,
		maxSize: DefaultMaxFileSize,
		logger:  zerolog.Nop(),
		nested:  make(map[string]any),
		flat:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	switch r.format {
	case "", FormatAuto, FormatTOML, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported settings file format %q", r.format)
	}

	if err := r.Reload(); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return r, err
		}
		return nil, err
	}
	return r, nil
}

// Path returns the file path.
func (r *FileRetriever) Path() string { return r.path }

func (r *FileRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.flat[f.Key()]; ok {
		return copyValue(v), nil
	}
	if v, ok := navigateToPath(r.nested, f.Key()); ok {
		return copyValue(v), nil
	}
	return nil, ErrNotFound
}

// Values returns a copy of the loaded values keyed by dotted path.
func (r *FileRetriever) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.flat))
	for k, v := range r.flat {
		out[k] = v
	}
	return out
}

// Reload reads and parses the file again. On failure the previous content is kept.
func (r *FileRetriever) Reload() error {
	data, err := r.read()
	if err != nil {
		return err
	}

	format := r.format
	if format == "" || format == FormatAuto {
		// Try extension first, then content
		format = detectFileFormat(r.path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}

	nested, err := parseFile(data, format)
	if err != nil {
		return fmt.Errorf("failed to parse settings file '%s': %w", r.path, err)
	}
	flat := flattenMap(nested, "")

	r.mu.Lock()
	r.nested = nested
	r.flat = flat
	r.mu.Unlock()

	r.logger.Debug().Str("path", r.path).Str("format", format).Int("keys", len(flat)).Msg("loaded settings file")
	return nil
}

func (r *FileRetriever) read() ([]byte, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, r.path)
		}
		return nil, fmt.Errorf("failed to stat settings file '%s': %w", r.path, err)
	}
	if r.maxSize > 0 && info.Size() > r.maxSize {
		return nil, fmt.Errorf("settings file '%s' exceeds maximum size %d bytes", r.path, r.maxSize)
	}

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file '%s': %w", r.path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if r.maxSize > 0 {
		reader = io.LimitReader(file, r.maxSize)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file '%s': %w", r.path, err)
	}
	return data, nil
}

// parseFile decodes data in the given format into a nested map.
func parseFile(data []byte, format string) (map[string]any, error) {
	out := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&out); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, ErrFileFormat
	}
	return out, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	return ""
}
