// FILE: lixenwraith/settings/field.go
package settings

import (
	"fmt"
	"sync"
)

// DefaultFunc is a field default computed on every read.
type DefaultFunc func() (any, error)

// defaultSentinel is the type of Default.
type defaultSentinel struct{}

func (defaultSentinel) String() string { return "Default" }

// Default, stored as a direct value on an instance, stops the search for
// direct values and sends resolution straight to the retrievers.
var Default = defaultSentinel{}

// FieldSpec is an explicit field declaration. Set members override what
// would otherwise be inferred from the attribute name, type and default.
type FieldSpec struct {
	// Key is the name external sources look the field up by. Defaults to the attribute name.
	Key string
	// Type is the declared type. Inferred from Default when zero.
	Type TypeSpec
	// Required overrides the inferred required flag.
	Required *bool
	// Default is a literal, a DefaultFunc or a *LazyRef. nil means no default.
	Default any
	// Converter replaces the registry lookup for this field.
	Converter ConverterFunc
	// Retriever is consulted before any instance or class retriever.
	Retriever Retriever
}

// Bool returns a pointer to b, for FieldSpec.Required.
func Bool(b bool) *bool { return &b }

// Property is a read accessor declared on a class. The getter becomes the
// field's retriever. Write accessors are rejected at build time.
type Property struct {
	Get  func(s *Settings) (any, error)
	Set  func(s *Settings, value any) error
	Type TypeSpec
}

// ReadOnly builds a getter-only Property typed T.
func ReadOnly[T any](get func(s *Settings) (T, error)) Property {
	return Property{
		Type: Type[T](),
		Get: func(s *Settings) (any, error) {
			return get(s)
		},
	}
}

// Field is the descriptor of one resolvable attribute. Its shape is fixed
// when the class is built; only the default can be replaced afterwards,
// through Class.SetDefault.
type Field struct {
	name      string
	key       string
	typ       TypeSpec
	converter ConverterFunc
	retriever Retriever
	required  bool
	class     *Class

	mu         sync.RWMutex
	def        any
	hasDefault bool
}

func (f *Field) Name() string { return f.name }
func (f *Field) Key() string { return f.key }
func (f *Field) Type() TypeSpec { return f.typ }
func (f *Field) Required() bool { return f.required }
func (f *Field) Converter() ConverterFunc { return f.converter }
func (f *Field) Retriever() Retriever { return f.retriever }

// Class returns the class that declared the field.
func (f *Field) Class() *Class { return f.class }

// Default returns the current default and whether one is set.
func (f *Field) Default() (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def, f.hasDefault
}

func (f *Field) setDefault(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.def = v
	f.hasDefault = v != nil
}

func (f *Field) String() string {
	class := "<unbound>"
	if f.class != nil {
		class = f.class.name
	}
	return fmt.Sprintf("field %s.%s (key=%q type=%s required=%t)", class, f.name, f.key, f.typ, f.required)
}

// clone copies the descriptor for a redeclaring subclass.
func (f *Field) clone() *Field {
	def, has := f.Default()
	return &Field{
		name:       f.name,
		key:        f.key,
		typ:        f.typ,
		converter:  f.converter,
		retriever:  f.retriever,
		required:   f.required,
		class:      f.class,
		def:        def,
		hasDefault: has,
	}
}

// merge applies spec on top of f. Members set in spec win.
func (f *Field) merge(spec FieldSpec) {
	if spec.Key != "" {
		f.key = spec.Key
	}
	if !spec.Type.IsZero() {
		f.typ = spec.Type
	}
	if spec.Converter != nil {
		f.converter = spec.Converter
	}
	if spec.Retriever != nil {
		f.retriever = spec.Retriever
	}
	if spec.Default != nil {
		f.def = spec.Default
		f.hasDefault = true
	}
	if spec.Required != nil {
		f.required = *spec.Required
	} else {
		f.required = !f.hasDefault && !f.typ.optional
	}
}
