package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// leafStructs are struct types treated as single values rather than
// flattened into nested fields.
var leafStructs = map[reflect.Type]bool{
	reflect.TypeFor[time.Time](): true,
	reflect.TypeFor[url.URL]():   true,
	reflect.TypeFor[net.IPNet](): true,
}

// FromStruct declares one field per exported field of defaults, a struct
// or struct pointer. Field values become defaults.
//
// The `settings` tag sets the field name and options:
//
//	Host string        `settings:"host"`
//	Port int           `settings:"port,required"`      // zero value is not a default
//	Tags []string      `settings:",optional"`
//	Mode string        `settings:"mode" default:"dev"` // used when the value is zero
//	Skip int           `settings:"-"`
//
// Nested structs are flattened into dotted names ("server.port"). Pointer
// fields are optional.
func (b *ClassBuilder) FromStruct(defaults any) *ClassBuilder {
	v := reflect.ValueOf(defaults)

	// Handle pointer or direct struct value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			b.errs = append(b.errs, configErr(b.name, "", fmt.Errorf("FromStruct requires a non-nil struct pointer or value")))
			return b
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		b.errs = append(b.errs, configErr(b.name, "", fmt.Errorf("FromStruct requires a struct or struct pointer, got %T", defaults)))
		return b
	}

	b.declareFields(v, "")
	return b
}

// declareFields handles the recursive field declaration.
func (b *ClassBuilder) declareFields(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)

		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		name := sf.Name
		var optional, required bool
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				switch strings.TrimSpace(opt) {
				case "optional":
					optional = true
				case "required":
					required = true
				}
			}
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		ft := sf.Type
		if ft.Kind() == reflect.Struct && !b.isLeaf(ft) {
			b.declareFields(fv, path)
			continue
		}
		if ft.Kind() == reflect.Ptr && ft.Elem().Kind() == reflect.Struct && !b.isLeaf(ft.Elem()) {
			nested := reflect.New(ft.Elem()).Elem()
			if !fv.IsNil() {
				nested = fv.Elem()
			}
			b.declareFields(nested, path)
			continue
		}

		spec := TypeFor(ft)
		var def any
		switch {
		case ft.Kind() == reflect.Ptr:
			spec = Optional(TypeFor(ft.Elem()))
			if !fv.IsNil() {
				def = fv.Elem().Interface()
			}
		case !fv.IsZero() || !required:
			def = fv.Interface()
		}
		if tagDefault, ok := sf.Tag.Lookup("default"); ok && (def == nil || fv.IsZero()) {
			def = tagDefault
		}
		if optional {
			spec = Optional(spec)
		}

		if def != nil {
			b.Attr(path, spec, def)
		} else {
			b.Annotate(path, spec)
		}
	}
}

func (b *ClassBuilder) isLeaf(t reflect.Type) bool {
	if leafStructs[t] {
		return true
	}
	conv := b.converters
	if conv == nil {
		conv = DefaultConverters()
	}
	_, ok := conv.exact(t)
	return ok
}
