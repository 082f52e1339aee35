// File: lixenwraith/settings/builder.go
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// privatePrefix marks attributes that are never turned into fields.
const privatePrefix = "_"

// declaration is one attribute as written in the class body.
type declaration struct {
	name     string
	typ      TypeSpec
	hasType  bool
	value    any
	hasValue bool
}

// ClassBuilder provides a fluent interface for declaring a settings class.
// Problems are collected and reported together by Build.
type ClassBuilder struct {
	name       string
	parents    []*Class
	retrievers []Retriever
	converters *Converters
	decls      []*declaration
	index      map[string]*declaration
	errs       []error
}

// NewClass starts the declaration of a settings class.
func NewClass(name string) *ClassBuilder {
	return &ClassBuilder{
		name:  name,
		index: make(map[string]*declaration),
	}
}

// Extends sets the parent classes, in declaration order.
func (b *ClassBuilder) Extends(parents ...*Class) *ClassBuilder {
	b.parents = append(b.parents, parents...)
	return b
}

// WithDefaultRetrievers sets the class-level retrievers consulted after
// every instance retriever.
func (b *ClassBuilder) WithDefaultRetrievers(retrievers ...Retriever) *ClassBuilder {
	b.retrievers = append(b.retrievers, retrievers...)
	return b
}

// WithConverters sets the converter registry. Subclasses inherit it unless they set their own.
func (b *ClassBuilder) WithConverters(c *Converters) *ClassBuilder {
	b.converters = c
	return b
}

// Annotate declares name with a type and no value.
func (b *ClassBuilder) Annotate(name string, t TypeSpec) *ClassBuilder {
	d := b.decl(name)
	d.typ = t
	d.hasType = true
	return b
}

// Attr declares name with a type and a value.
func (b *ClassBuilder) Attr(name string, t TypeSpec, value any) *ClassBuilder {
	return b.Annotate(name, t).Set(name, value)
}

// Set assigns a value to name without a type annotation. The value may be
// a literal default, a DefaultFunc, a *LazyRef, a FieldSpec, a Property or
// a method.
func (b *ClassBuilder) Set(name string, value any) *ClassBuilder {
	d := b.decl(name)
	if d.hasValue && (isCustomField(d.value) || isCustomField(value)) {
		b.errs = append(b.errs, configErr(b.name, name, ErrDuplicateField))
		return b
	}
	d.value = value
	d.hasValue = true
	return b
}

// Method attaches a plain function to the class. Methods are never fields.
func (b *ClassBuilder) Method(name string, fn any) *ClassBuilder {
	if !isMethod(fn) {
		b.errs = append(b.errs, configErr(b.name, name, fmt.Errorf("method must be a func, got %T", fn)))
		return b
	}
	return b.Set(name, fn)
}

// Property declares a read accessor whose result resolves the field.
func (b *ClassBuilder) Property(name string, p Property) *ClassBuilder {
	return b.Set(name, p)
}

// Build creates the class, or reports every declaration problem at once.
func (b *ClassBuilder) Build() (*Class, error) {
	if !isValidPath(b.name) {
		return nil, configErr(b.name, "", fmt.Errorf("%w: class name %q", ErrInvalidName, b.name))
	}
	for _, p := range b.parents {
		if p == nil {
			return nil, configErr(b.name, "", fmt.Errorf("%w: nil parent class", ErrHierarchy))
		}
	}

	cls := &Class{
		name:       b.name,
		parents:    append([]*Class(nil), b.parents...),
		fields:     make(map[string]*Field),
		members:    make(map[string]any),
		converters: b.converters,
		retrievers: append([]Retriever(nil), b.retrievers...),
	}

	mro, err := linearize(cls)
	if err != nil {
		return nil, configErr(b.name, "", err)
	}
	cls.mro = mro

	if cls.converters == nil {
		cls.converters = DefaultConverters()
		for _, c := range mro[1:] {
			if c.converters != nil {
				cls.converters = c.converters
				break
			}
		}
	}

	// Inherited fields, nearest class in MRO wins.
	inherited := make(map[string]*Field)
	for i := len(mro) - 1; i >= 1; i-- {
		for _, name := range mro[i].order {
			if _, seen := inherited[name]; !seen {
				cls.order = append(cls.order, name)
			}
			inherited[name] = mro[i].fields[name]
		}
	}
	for name, f := range inherited {
		cls.fields[name] = f
	}

	errs := append([]error(nil), b.errs...)
	for _, d := range b.decls {
		f, err := b.buildField(cls, d, inherited[d.name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if f == nil {
			continue
		}
		if _, exists := cls.fields[f.name]; !exists {
			cls.order = append(cls.order, f.name)
		}
		cls.fields[f.name] = f
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cls, nil
}

// MustBuild is like Build but panics on error
func (b *ClassBuilder) MustBuild() *Class {
	cls, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("settings class build failed: %v", err))
	}
	return cls
}

// buildField turns one declaration into a descriptor. A nil field with a
// nil error means the attribute is a plain class member.
func (b *ClassBuilder) buildField(cls *Class, d *declaration, parent *Field) (*Field, error) {
	if strings.HasPrefix(d.name, privatePrefix) {
		cls.members[d.name] = d.value
		return nil, nil
	}
	if !isValidPath(d.name) {
		return nil, configErr(cls.name, d.name, ErrInvalidName)
	}

	var spec FieldSpec
	switch v := d.value.(type) {
	case Property:
		if v.Set != nil {
			return nil, configErr(cls.name, d.name, ErrWriteAccessor)
		}
		if v.Get == nil {
			return nil, configErr(cls.name, d.name, errors.New("property has no read accessor"))
		}
		spec.Type = v.Type
		if d.hasType {
			spec.Type = d.typ
		}
		if spec.Type.IsZero() {
			return nil, configErr(cls.name, d.name, ErrMissingType)
		}
		get := v.Get
		spec.Retriever = RetrieverFunc(func(_ *Field, s *Settings) (any, error) {
			return get(s)
		})
	case FieldSpec:
		spec = v
		if spec.Type.IsZero() && d.hasType {
			spec.Type = d.typ
		}
	default:
		if d.hasValue && !d.hasType && isMethod(d.value) {
			cls.members[d.name] = d.value
			return nil, nil
		}
		if d.hasType {
			spec.Type = d.typ
		}
		if d.hasValue {
			spec.Default = d.value
		}
	}

	var f *Field
	if parent != nil {
		f = parent.clone()
		f.class = cls
	} else {
		f = &Field{name: d.name, key: d.name, class: cls}
		if spec.Type.IsZero() {
			spec.Type = inferType(spec.Default)
		}
		if spec.Type.IsZero() {
			return nil, configErr(cls.name, d.name, ErrMissingType)
		}
	}
	f.merge(spec)
	return f, nil
}

// inferType derives the declared type from a default value. Lazy references
// take the referenced field's type; computed defaults cannot be inferred.
func inferType(v any) TypeSpec {
	switch d := v.(type) {
	case *LazyRef:
		return d.field.typ
	case DefaultFunc, nil:
		return TypeSpec{}
	}
	return typeOfValue(v)
}

func (b *ClassBuilder) decl(name string) *declaration {
	if d, ok := b.index[name]; ok {
		return d
	}
	d := &declaration{name: name}
	b.index[name] = d
	b.decls = append(b.decls, d)
	return d
}

func isCustomField(v any) bool {
	switch v.(type) {
	case FieldSpec, Property:
		return true
	}
	return false
}

func isMethod(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case DefaultFunc, RetrieverFunc, ConverterFunc:
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// linearize computes the C3 method resolution order of c.
func linearize(c *Class) ([]*Class, error) {
	var seqs [][]*Class
	for _, p := range c.parents {
		seqs = append(seqs, append([]*Class(nil), p.mro...))
	}
	seqs = append(seqs, append([]*Class(nil), c.parents...))

	out := []*Class{c}
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, nil
		}

		var head *Class
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				head = s[0]
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("%w: cannot linearize parents of %q", ErrHierarchy, c.name)
		}

		out = append(out, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}
