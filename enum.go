// File: lixenwraith/settings/enum.go
package settings

import (
	"fmt"
	"reflect"
	"strings"
)

// EnumMember is one named value of an enumerated type.
type EnumMember[T comparable] struct {
	Name  string
	Value T
}

// Member builds an EnumMember.
func Member[T comparable](name string, value T) EnumMember[T] {
	return EnumMember[T]{Name: name, Value: value}
}

// Enum is a closed set of named values of one Go type. A field typed with
// Enum.Type() accepts a member value, a member name, or anything that
// converts to a member value.
type Enum struct {
	name   string
	typ    reflect.Type
	names  []string
	values []any
}

// NewEnum declares an enumerated type named name over T.
func NewEnum[T comparable](name string, members ...EnumMember[T]) *Enum {
	e := &Enum{
		name: name,
		typ:  reflect.TypeFor[T](),
	}
	for _, m := range members {
		e.names = append(e.names, m.Name)
		e.values = append(e.values, m.Value)
	}
	return e
}

// Type returns a TypeSpec tagged with this enum.
func (e *Enum) Type() TypeSpec {
	return TypeSpec{rtype: e.typ, enum: e}
}

// Name returns the enum's declared name.
func (e *Enum) Name() string { return e.name }

// Members returns member names in declaration order.
func (e *Enum) Members() []string {
	return append([]string(nil), e.names...)
}

func (e *Enum) has(v any) bool {
	for _, m := range e.values {
		if m == v {
			return true
		}
	}
	return false
}

func (e *Enum) byName(name string) (any, bool) {
	for i, n := range e.names {
		if n == name {
			return e.values[i], true
		}
	}
	for i, n := range e.names {
		if strings.EqualFold(n, name) {
			return e.values[i], true
		}
	}
	return nil, false
}

// coerce treats raw as a candidate member: by value first, then by name,
// then by converting raw to the member type.
func (e *Enum) coerce(raw any, conv *Converters) (any, error) {
	if reflect.TypeOf(raw) == e.typ && e.has(raw) {
		return raw, nil
	}
	if s, ok := raw.(string); ok {
		if v, found := e.byName(strings.TrimSpace(s)); found {
			return v, nil
		}
	}
	if v, err := conv.convertType(raw, e.typ); err == nil && e.has(v) {
		return v, nil
	}
	return nil, fmt.Errorf("%v is not a member of %s (members: %s)", raw, e.name, strings.Join(e.names, ", "))
}
