// FILE: lixenwraith/settings/class.go
package settings

import (
	"fmt"
	"sync"
)

// Class is a built settings class: its field descriptors, its place in
// the inheritance hierarchy and its class-level default retrievers.
type Class struct {
	name       string
	parents    []*Class
	mro        []*Class
	fields     map[string]*Field
	order      []string
	members    map[string]any
	converters *Converters

	mu         sync.RWMutex
	retrievers []Retriever
}

func (c *Class) Name() string { return c.name }
func (c *Class) String() string { return c.name }

// Parents returns the declared parent classes.
func (c *Class) Parents() []*Class {
	return append([]*Class(nil), c.parents...)
}

// MRO returns the class followed by its ancestors in linearized order.
// Default retrievers are consulted in this order.
func (c *Class) MRO() []*Class {
	return append([]*Class(nil), c.mro...)
}

// Converters returns the registry used to coerce values for this class.
func (c *Class) Converters() *Converters { return c.converters }

// IsSubclassOf reports whether other appears in c's MRO.
func (c *Class) IsSubclassOf(other *Class) bool {
	for _, x := range c.mro {
		if x == other {
			return true
		}
	}
	return false
}

// Field returns the descriptor for name, including inherited fields.
func (c *Class) Field(name string) (*Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Fields returns all descriptors, inherited ones first.
func (c *Class) Fields() []*Field {
	out := make([]*Field, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.fields[name])
	}
	return out
}

// Member returns a non-field class attribute (a method or private value),
// searching the MRO.
func (c *Class) Member(name string) (any, bool) {
	for _, x := range c.mro {
		if v, ok := x.members[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetDefault replaces the default of an existing field. Literal values are
// coerced to the declared type immediately; DefaultFunc and *LazyRef values
// are kept as-is and coerced when read. Inherited fields that a subclass
// did not redeclare are shared, so the change is visible through them.
func (c *Class) SetDefault(name string, value any) error {
	f, ok := c.fields[name]
	if !ok {
		return configErr(c.name, name, ErrUnknownField)
	}
	switch value.(type) {
	case nil, DefaultFunc, *LazyRef:
		f.setDefault(value)
		return nil
	}
	v, err := c.coerce(f, value)
	if err != nil {
		return err
	}
	f.setDefault(v)
	return nil
}

// Ref returns a lazy reference to the named field. It panics if the class
// has no such field, like a compile-time typo would.
func (c *Class) Ref(name string) *LazyRef {
	f, ok := c.fields[name]
	if !ok {
		panic(fmt.Sprintf("settings: %v", configErr(c.name, name, ErrUnknownField)))
	}
	return &LazyRef{class: c, field: f}
}

// AddDefaultRetrievers appends class-level retrievers.
func (c *Class) AddDefaultRetrievers(retrievers ...Retriever) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retrievers = append(c.retrievers, retrievers...)
}

// DefaultRetrievers returns this class's own retrievers, without ancestors'.
func (c *Class) DefaultRetrievers() []Retriever {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Retriever(nil), c.retrievers...)
}

// New creates an instance that is not yet on any scope stack.
func (c *Class) New(opts ...Option) *Settings {
	s := &Settings{
		class:  c,
		values: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// coerce converts value to f's declared type unless it already matches.
func (c *Class) coerce(f *Field, value any) (any, error) {
	if value == nil || f.typ.matches(value) {
		return value, nil
	}
	var (
		out any
		err error
	)
	if f.converter != nil {
		out, err = f.converter(value)
	} else {
		out, err = c.converters.convert(value, f.typ)
	}
	if err != nil {
		return nil, conversionErr(f, value, err)
	}
	if out == nil && f.required {
		return nil, conversionErr(f, value, fmt.Errorf("converter produced no value for required field"))
	}
	return out, nil
}
