// File: lixenwraith/settings/source_test.go
package settings

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceClass() *Class {
	return NewClass("Sources").
		Attr("server.host", Type[string](), "localhost").
		Attr("server.port", Type[int](), 8080).
		Attr("debug", Type[bool](), false).
		Attr("timeout", Type[time.Duration](), 5*time.Second).
		Attr("tags", Type[[]string](), []string{"default"}).
		Attr("ratio", Type[float64](), 0.5).
		MustBuild()
}

func TestArgsRetriever(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		r, err := NewArgsRetriever([]string{
			"serve",
			"--server.port=9090",
			"--debug",
			"--server.host", "args.example",
			"-v",
			"--",
			"--ratio=0.9",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"server.port": "9090",
			"debug":       "true",
			"server.host": "args.example",
		}, r.Values())

		s := NewContext().Current(sourceClass())
		s.AddRetrievers(r)
		assert.Equal(t, 9090, s.MustGet("server.port"))
		assert.Equal(t, true, s.MustGet("debug"))
		assert.Equal(t, "args.example", s.MustGet("server.host"))
		assert.Equal(t, 0.5, s.MustGet("ratio"))
	})

	t.Run("TrailingBoolean", func(t *testing.T) {
		r, err := NewArgsRetriever([]string{"--server.port", "1", "--debug"})
		require.NoError(t, err)
		assert.Equal(t, "true", r.Values()["debug"])
		assert.Equal(t, "1", r.Values()["server.port"])
	})

	t.Run("InvalidKey", func(t *testing.T) {
		_, err := NewArgsRetriever([]string{"--bad key=1"})
		assert.ErrorIs(t, err, ErrArgsParse)
	})
}

func TestFlagRetriever(t *testing.T) {
	cls := sourceClass()

	t.Run("RegisterFlags", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(fs, cls)

		assert.Equal(t, "8080", fs.Lookup("server.port").DefValue)
		assert.Equal(t, "localhost", fs.Lookup("server.host").DefValue)
		assert.Equal(t, "false", fs.Lookup("debug").DefValue)
		assert.Equal(t, "5s", fs.Lookup("timeout").DefValue)
		assert.Equal(t, "stringSlice", fs.Lookup("tags").Value.Type())
		assert.Equal(t, "float64", fs.Lookup("ratio").Value.Type())
	})

	t.Run("KeepsExistingFlags", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.String("debug", "custom", "pre-existing")
		RegisterFlags(fs, cls)
		assert.Equal(t, "custom", fs.Lookup("debug").DefValue)
	})

	t.Run("OnlyChangedFlagsAreFound", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(fs, cls)
		require.NoError(t, fs.Parse([]string{"--server.port=7000", "--timeout=1m", "--tags=a,b", "--debug"}))

		ctx := NewContext()
		root := ctx.Current(cls)
		root.Set("server.host", "root.example")
		s := cls.New(WithRetrievers(NewFlagRetriever(fs)))
		ctx.Enter(s)

		assert.Equal(t, 7000, s.MustGet("server.port"))
		assert.Equal(t, time.Minute, s.MustGet("timeout"))
		assert.Equal(t, []string{"a", "b"}, s.MustGet("tags"))
		assert.Equal(t, true, s.MustGet("debug"))

		// The flag default does not shadow the ancestor value
		assert.Equal(t, "root.example", s.MustGet("server.host"))
		assert.Equal(t, 0.5, s.MustGet("ratio"))
	})
}

func TestViperRetriever(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 7070)
	v.Set("server.host", "viper.example")

	s := NewContext().Current(sourceClass())
	s.AddRetrievers(NewViperRetriever(v))

	assert.Equal(t, 7070, s.MustGet("server.port"))
	assert.Equal(t, "viper.example", s.MustGet("server.host"))
	assert.Equal(t, false, s.MustGet("debug"))
}

func TestMapRetriever(t *testing.T) {
	m := NewMapRetriever(map[string]any{"server.port": "1"})
	s := NewContext().Current(sourceClass())
	s.AddRetrievers(m)

	assert.Equal(t, 1, s.MustGet("server.port"))
	m.Store("server.port", 2)
	assert.Equal(t, 2, s.MustGet("server.port"))
	m.Delete("server.port")
	assert.Equal(t, 8080, s.MustGet("server.port"))
}

func TestKeyedField(t *testing.T) {
	cls := NewClass("Keyed").
		Attr("port", Type[int](), FieldSpec{Key: "SERVICE_PORT", Default: 1}).
		MustBuild()
	s := NewContext().Current(cls)
	s.AddRetrievers(NewMapRetriever(map[string]any{"SERVICE_PORT": "8443", "port": "1"}))
	assert.Equal(t, 8443, s.MustGet("port"))
}
