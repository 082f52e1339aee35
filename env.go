// FILE: lixenwraith/settings/env.go
package settings

import (
	"fmt"
	"os"
	"strings"
)

// EnvTransformFunc converts a field key to an environment variable name.
type EnvTransformFunc func(key string) string

// EnvRetriever reads field values from environment variables. For each
// field it tries prefix+key exactly as written, then the transformed name
// (by default dots to underscores, upper-cased). An empty variable counts
// as found.
type EnvRetriever struct {
	prefix    string
	transform EnvTransformFunc
	whitelist map[string]bool
	lookup    func(string) (string, bool)
}

// EnvOption configures an EnvRetriever.
type EnvOption func(*EnvRetriever)

// WithEnvTransform replaces the default name transformation.
func WithEnvTransform(fn EnvTransformFunc) EnvOption {
	return func(e *EnvRetriever) {
		e.transform = fn
	}
}

// WithEnvWhitelist limits which field keys are looked up.
func WithEnvWhitelist(keys ...string) EnvOption {
	return func(e *EnvRetriever) {
		if e.whitelist == nil {
			e.whitelist = make(map[string]bool)
		}
		for _, k := range keys {
			e.whitelist[k] = true
		}
	}
}

// withEnvLookup swaps the environment source, for tests.
func withEnvLookup(fn func(string) (string, bool)) EnvOption {
	return func(e *EnvRetriever) {
		e.lookup = fn
	}
}

// NewEnvRetriever creates an environment retriever with an optional name prefix.
func NewEnvRetriever(prefix string, opts ...EnvOption) *EnvRetriever {
	e := &EnvRetriever{
		prefix: prefix,
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.transform == nil {
		e.transform = defaultEnvTransform(prefix)
	}
	return e
}

// Names returns the variable names tried for key, in order.
func (e *EnvRetriever) Names(key string) []string {
	names := []string{e.prefix + key}
	if t := e.transform(key); t != names[0] {
		names = append(names, t)
	}
	return names
}

func (e *EnvRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	if e.whitelist != nil && !e.whitelist[f.Key()] {
		return nil, ErrNotFound
	}
	for _, name := range e.Names(f.Key()) {
		if value, exists := e.lookup(name); exists {
			if len(value) > MaxValueSize {
				return nil, fmt.Errorf("%w: environment variable %s", ErrValueSize, name)
			}
			return value, nil
		}
	}
	return nil, ErrNotFound
}

// Discover returns field name to variable name for every field of cls
// whose variable is currently set.
func (e *EnvRetriever) Discover(cls *Class) map[string]string {
	found := make(map[string]string)
	for _, f := range cls.Fields() {
		for _, name := range e.Names(f.Key()) {
			if _, exists := e.lookup(name); exists {
				found[f.Name()] = name
				break
			}
		}
	}
	return found
}

// defaultEnvTransform creates the default environment variable transformer
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(key string) string {
		env := strings.ReplaceAll(key, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// EnvSettings is an abstract base class whose subclasses read unset
// fields from the environment, trying each key as written and then upper-cased.
var EnvSettings = NewClass("EnvSettings").
	WithDefaultRetrievers(NewEnvRetriever("")).
	MustBuild()
