// File: lixenwraith/settings/settings.go
package settings

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

// Settings is one instance of a settings class. Directly-set values live in
// the instance; everything else is resolved on read.
//
// Concurrent writes to the same instance must be serialized by the caller
// if their ordering matters; the internal lock only keeps the maps intact.
type Settings struct {
	class *Class

	mu         sync.RWMutex
	values     map[string]any
	retrievers []Retriever
	ctx        *Context
}

// Option configures a new instance.
type Option func(*Settings)

// WithValues presets direct values.
func WithValues(values map[string]any) Option {
	return func(s *Settings) {
		for k, v := range values {
			s.values[k] = v
		}
	}
}

// WithRetrievers sets the instance retrievers, consulted in order.
func WithRetrievers(retrievers ...Retriever) Option {
	return func(s *Settings) {
		s.retrievers = append(s.retrievers, retrievers...)
	}
}

// Class returns the instance's class.
func (s *Settings) Class() *Class { return s.class }

// Context returns the Context the instance was created by or last entered
// into, or Background for a free-standing instance.
func (s *Settings) Context() *Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx == nil {
		return background
	}
	return s.ctx
}

func (s *Settings) bind(c *Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = c
}

// Set stores a direct value. Any name is accepted; names that are not
// fields are kept and returned verbatim by Get. Storing nil is the same as
// not setting the field. Storing Default skips direct values and forces
// retrieval for this field.
func (s *Settings) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Unset removes a direct value.
func (s *Settings) Unset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// IsSet reports whether name has a direct value on this instance.
func (s *Settings) IsSet(name string) bool {
	_, state := s.direct(name)
	return state == directValue
}

// AddRetrievers appends instance retrievers.
func (s *Settings) AddRetrievers(retrievers ...Retriever) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retrievers = append(s.retrievers, retrievers...)
}

// Retrievers returns the instance retrievers.
func (s *Settings) Retrievers() []Retriever {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Retriever(nil), s.retrievers...)
}

// Get resolves name. For fields this runs the full resolution order; for
// other names it returns the direct value or class member stored under name.
func (s *Settings) Get(name string) (any, error) {
	res, err := s.Explain(name)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// MustGet is like Get but panics on error
func (s *Settings) MustGet(name string) any {
	v, err := s.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Value resolves name and returns it as T, converting through the class
// registry when the resolved value is of a different type.
func Value[T any](s *Settings, name string) (T, error) {
	var zero T
	v, err := s.Get(name)
	if err != nil || v == nil {
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	out, err := s.class.converters.convertType(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, &ValueError{Field: s.class.name + "." + name, Value: v, Err: fmt.Errorf("%w: %w", ErrConversion, err)}
	}
	return out.(T), nil
}

// Explain resolves name and reports where the value came from.
func (s *Settings) Explain(name string) (Resolution, error) {
	if f, ok := s.class.Field(name); ok {
		return s.resolve(f, nil)
	}

	s.mu.RLock()
	v, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return Resolution{Source: SourceDirect, Instance: s, Raw: v, Value: v}, nil
	}
	if m, ok := s.class.Member(name); ok {
		return Resolution{Source: SourceClass, Class: s.class, Raw: m, Value: m}, nil
	}
	return Resolution{}, &ValueError{Field: s.class.name + "." + name, Err: ErrNoAttribute}
}

// Snapshot resolves every field. Fields that fail are left out and their
// errors joined.
func (s *Settings) Snapshot() (map[string]any, error) {
	out := make(map[string]any, len(s.class.order))
	var errs []error
	for _, f := range s.class.Fields() {
		res, err := s.resolve(f, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[f.name] = res.Value
	}
	return out, errors.Join(errs...)
}

// Fill resolves every field and decodes the result into target, a pointer
// to a struct or map. Dotted field names populate nested structs.
func (s *Settings) Fill(target any) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	nested := make(map[string]any)
	for name, v := range snap {
		setNestedValue(nested, name, v)
	}
	return s.class.converters.decode(nested, target)
}

// Dump writes the resolved fields as TOML, for debugging. Unset optional
// fields are omitted.
func (s *Settings) Dump(w io.Writer) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	nested := make(map[string]any)
	for _, name := range names {
		if v := snap[name]; v != nil {
			setNestedValue(nested, name, v)
		}
	}
	if err := toml.NewEncoder(w).Encode(nested); err != nil {
		return fmt.Errorf("failed to encode settings as TOML: %w", err)
	}
	return nil
}

type directState int

const (
	directNone directState = iota
	directValue
	directDefault
)

func (s *Settings) direct(name string) (any, directState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	switch {
	case !ok || v == nil:
		return nil, directNone
	case v == Default:
		return nil, directDefault
	}
	return v, directValue
}
