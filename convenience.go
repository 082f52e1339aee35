// File: lixenwraith/settings/convenience.go
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Quick creates a settings class from a struct of defaults with the
// standard sources wired as class default retrievers. Precedence, highest
// first: command-line arguments, environment variables, the settings
// file, struct defaults.
//
// A missing file is not fatal: the class is returned together with an
// error wrapping ErrFileNotFound.
func Quick(name string, defaults any, envPrefix, configFile string) (*Class, error) {
	args, err := NewArgsRetriever(os.Args[1:])
	if err != nil {
		return nil, err
	}
	retrievers := []Retriever{args, NewEnvRetriever(envPrefix)}

	var fileErr error
	if configFile != "" {
		file, err := NewFileRetriever(configFile)
		switch {
		case err == nil:
			retrievers = append(retrievers, file)
		case errors.Is(err, ErrFileNotFound):
			fileErr = err
		default:
			return nil, err
		}
	}

	cls, err := NewClass(name).
		FromStruct(defaults).
		WithDefaultRetrievers(retrievers...).
		Build()
	if err != nil {
		return nil, err
	}
	return cls, fileErr
}

// MustQuick is like Quick but panics on error
func MustQuick(name string, defaults any, envPrefix, configFile string) *Class {
	cls, err := Quick(name, defaults, envPrefix, configFile)
	if err != nil && !errors.Is(err, ErrFileNotFound) {
		panic(fmt.Sprintf("settings initialization failed: %v", err))
	}
	return cls
}

// Validate resolves the named fields, or every field when none are named,
// and reports all failures together.
func (s *Settings) Validate(names ...string) error {
	if len(names) == 0 {
		for _, f := range s.class.Fields() {
			names = append(names, f.Name())
		}
	}

	var errs []error
	for _, name := range names {
		f, ok := s.class.Field(name)
		if !ok {
			errs = append(errs, configErr(s.class.name, name, ErrUnknownField))
			continue
		}
		if _, err := s.resolve(f, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Debug returns a formatted listing of every field with its value and source
func (s *Settings) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settings debug info for %s:\n", s.class.name)

	for _, f := range s.class.Fields() {
		res, err := s.resolve(f, nil)
		if err != nil {
			fmt.Fprintf(&b, "  %s: error: %v\n", f.Name(), err)
			continue
		}
		fmt.Fprintf(&b, "  %s: %v (%s)\n", f.Name(), res.Value, res.Source)
	}

	return b.String()
}
