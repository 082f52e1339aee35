// File: lixenwraith/settings/typespec.go
package settings

import (
	"fmt"
	"reflect"
)

// TypeSpec is the declared type of a field: a Go type, an optional marker
// and, for enumerated types, the enum the value must belong to.
type TypeSpec struct {
	rtype    reflect.Type
	optional bool
	enum     *Enum
}

// Type returns the TypeSpec for T.
func Type[T any]() TypeSpec {
	return TypeSpec{rtype: reflect.TypeFor[T]()}
}

// OptionalOf returns an optional TypeSpec for T. Optional fields are not required.
func OptionalOf[T any]() TypeSpec {
	return Optional(Type[T]())
}

// TypeFor wraps an existing reflect.Type.
func TypeFor(t reflect.Type) TypeSpec {
	return TypeSpec{rtype: t}
}

// Optional marks t as optional.
func Optional(t TypeSpec) TypeSpec {
	t.optional = true
	return t
}

// Reflect returns the underlying Go type, with the optional marker removed.
func (t TypeSpec) Reflect() reflect.Type { return t.rtype }

// IsOptional reports whether the type was declared optional.
func (t TypeSpec) IsOptional() bool { return t.optional }

// Enum returns the enum tag, or nil.
func (t TypeSpec) Enum() *Enum { return t.enum }

// IsZero reports whether no type was declared.
func (t TypeSpec) IsZero() bool { return t.rtype == nil }

func (t TypeSpec) String() string {
	if t.rtype == nil {
		return "<none>"
	}
	name := t.rtype.String()
	if t.enum != nil {
		name = t.enum.name
	}
	if t.optional {
		return fmt.Sprintf("Optional[%s]", name)
	}
	return name
}

// matches reports whether v can be returned as-is for this type.
func (t TypeSpec) matches(v any) bool {
	if v == nil || t.rtype == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	if t.rtype.Kind() == reflect.Interface {
		return vt.Implements(t.rtype)
	}
	if vt != t.rtype {
		return false
	}
	return t.enum == nil || t.enum.has(v)
}

// typeOfValue infers a TypeSpec from a default value's runtime type.
func typeOfValue(v any) TypeSpec {
	if v == nil {
		return TypeSpec{}
	}
	return TypeSpec{rtype: reflect.TypeOf(v)}
}
