// FILE: lixenwraith/settings/io_test.go
package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	cls := NewClass("Saved").
		Attr("server.host", Type[string](), "localhost").
		Attr("server.port", Type[int](), 8080).
		Attr("debug", Type[bool](), false).
		MustBuild()

	t.Run("ResolvedValues", func(t *testing.T) {
		s := NewContext().Current(cls)
		s.Set("server.port", "9000")

		path := filepath.Join(t.TempDir(), "nested", "out.toml")
		require.NoError(t, s.Save(path))

		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"server.host": "localhost",
			"server.port": int64(9000),
			"debug":       false,
		}, r.Values())

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary file left behind")
	})

	t.Run("DirectValuesRoundTrip", func(t *testing.T) {
		s := NewContext().Current(cls)
		s.Set("debug", true)
		s.Set("scratch", "not a field")
		s.Set("server.host", Default)

		path := filepath.Join(t.TempDir(), "overrides.toml")
		require.NoError(t, s.SaveDirect(path))

		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"debug": true}, r.Values())

		fresh := NewContext().Current(cls)
		fresh.AddRetrievers(r)
		assert.Equal(t, true, fresh.MustGet("debug"))
	})

	t.Run("SourcesUntouched", func(t *testing.T) {
		dir := t.TempDir()
		source := writeFile(t, dir, "app.toml", "[server]\nport = 7000\n")
		r, err := NewFileRetriever(source)
		require.NoError(t, err)
		s := fileClass(t, r)
		s.Set("debug", true)
		assert.Equal(t, 7000, s.MustGet("server.port"))

		require.NoError(t, s.Save(filepath.Join(dir, "export.toml")))
		require.NoError(t, s.SaveDirect(filepath.Join(dir, "direct.toml")))

		data, err := os.ReadFile(source)
		require.NoError(t, err)
		assert.Equal(t, "[server]\nport = 7000\n", string(data))
		assert.Equal(t, map[string]any{"server.port": int64(7000)}, r.Values())
		assert.Equal(t, map[string]any{"port": int64(7000)}, s.MustGet("server"))
	})
}
