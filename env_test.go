// File: lixenwraith/settings/env_test.go
package settings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) EnvOption {
	return withEnvLookup(func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
}

func TestEnvRetriever(t *testing.T) {
	cls := NewClass("Env").
		Attr("db.host", Type[string](), "localhost").
		Attr("db.port", Type[int](), 5432).
		Attr("debug", Type[bool](), false).
		MustBuild()

	get := func(t *testing.T, env *EnvRetriever, name string) (any, error) {
		t.Helper()
		ctx := NewContext()
		s := ctx.Current(cls)
		s.AddRetrievers(env)
		return s.Get(name)
	}

	t.Run("Names", func(t *testing.T) {
		assert.Equal(t, []string{"db.host", "DB_HOST"}, NewEnvRetriever("").Names("db.host"))
		assert.Equal(t, []string{"APP_db.host", "APP_DB_HOST"}, NewEnvRetriever("APP_").Names("db.host"))
		assert.Equal(t, []string{"PORT"}, NewEnvRetriever("").Names("PORT"))
	})

	t.Run("ExactNameFirst", func(t *testing.T) {
		env := NewEnvRetriever("", fakeEnv(map[string]string{
			"db.host": "exact",
			"DB_HOST": "upper",
		}))
		v, err := get(t, env, "db.host")
		require.NoError(t, err)
		assert.Equal(t, "exact", v)
	})

	t.Run("UpperCaseFallback", func(t *testing.T) {
		env := NewEnvRetriever("", fakeEnv(map[string]string{"DB_PORT": "6543"}))
		v, err := get(t, env, "db.port")
		require.NoError(t, err)
		assert.Equal(t, 6543, v)
	})

	t.Run("Prefix", func(t *testing.T) {
		env := NewEnvRetriever("APP_", fakeEnv(map[string]string{
			"DEBUG":     "true",
			"APP_DEBUG": "yes",
		}))
		v, err := get(t, env, "debug")
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("EmptyValueIsFound", func(t *testing.T) {
		env := NewEnvRetriever("", fakeEnv(map[string]string{"DB_PORT": ""}))
		_, err := get(t, env, "db.port")
		assert.ErrorIs(t, err, ErrConversion)

		env = NewEnvRetriever("", fakeEnv(map[string]string{"DB_HOST": ""}))
		v, err := get(t, env, "db.host")
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})

	t.Run("Unset", func(t *testing.T) {
		env := NewEnvRetriever("", fakeEnv(nil))
		v, err := get(t, env, "db.host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", v)
	})

	t.Run("Whitelist", func(t *testing.T) {
		env := NewEnvRetriever("",
			fakeEnv(map[string]string{"DB_HOST": "env", "DB_PORT": "1"}),
			WithEnvWhitelist("db.port"),
		)
		v, err := get(t, env, "db.host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", v)

		v, err = get(t, env, "db.port")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("CustomTransform", func(t *testing.T) {
		env := NewEnvRetriever("",
			fakeEnv(map[string]string{"db-host": "dashed"}),
			WithEnvTransform(func(key string) string { return strings.ReplaceAll(key, ".", "-") }),
		)
		v, err := get(t, env, "db.host")
		require.NoError(t, err)
		assert.Equal(t, "dashed", v)
	})

	t.Run("ValueTooLarge", func(t *testing.T) {
		env := NewEnvRetriever("", fakeEnv(map[string]string{"DB_HOST": strings.Repeat("x", MaxValueSize+1)}))
		_, err := get(t, env, "db.host")
		assert.ErrorIs(t, err, ErrValueSize)
	})

	t.Run("Discover", func(t *testing.T) {
		env := NewEnvRetriever("APP_", fakeEnv(map[string]string{"APP_DB_PORT": "1", "APP_debug": "1"}))
		assert.Equal(t, map[string]string{
			"db.port": "APP_DB_PORT",
			"debug":   "APP_debug",
		}, env.Discover(cls))
	})
}

func TestEnvSettings(t *testing.T) {
	cls := NewClass("Deploy").
		Extends(EnvSettings).
		Attr("deploy_test_region", Type[string](), "local").
		Attr("deploy_test_replicas", Type[int](), 1).
		MustBuild()

	t.Setenv("DEPLOY_TEST_REPLICAS", "3")

	ctx := NewContext()
	s := ctx.Current(cls)

	res, err := s.Explain("deploy_test_replicas")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Value)
	assert.Equal(t, SourceClassRetriever, res.Source)
	assert.Same(t, EnvSettings, res.Class)

	assert.Equal(t, "local", s.MustGet("deploy_test_region"))

	// Direct values still win over the environment
	s.Set("deploy_test_replicas", 5)
	assert.Equal(t, 5, s.MustGet("deploy_test_replicas"))
}
