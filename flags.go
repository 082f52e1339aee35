// File: lixenwraith/settings/flags.go
package settings

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/pflag"
)

// FlagRetriever serves values from a pflag.FlagSet. Only flags the user
// actually set count as found, so flag defaults never shadow lower sources.
type FlagRetriever struct {
	fs *pflag.FlagSet
}

// NewFlagRetriever wraps fs. Lookups happen at read time, so fs may be
// parsed after the retriever is attached.
func NewFlagRetriever(fs *pflag.FlagSet) *FlagRetriever {
	return &FlagRetriever{fs: fs}
}

func (r *FlagRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	fl := r.fs.Lookup(f.Key())
	if fl == nil || !fl.Changed {
		return nil, ErrNotFound
	}
	if sv, ok := fl.Value.(pflag.SliceValue); ok {
		return sv.GetSlice(), nil
	}
	return fl.Value.String(), nil
}

// RegisterFlags defines one flag per field of cls on fs, named by field key
// and typed by the field's declared kind. Flags that already exist are left alone.
func RegisterFlags(fs *pflag.FlagSet, cls *Class) {
	for _, f := range cls.Fields() {
		name := f.Key()
		if fs.Lookup(name) != nil {
			continue
		}
		usage := fmt.Sprintf("Settings: %s.%s (%s)", cls.Name(), f.Name(), f.Type())
		def, _ := f.Default()

		t := f.Type().Reflect()
		switch {
		case t == reflect.TypeFor[time.Duration]():
			v, _ := def.(time.Duration)
			fs.Duration(name, v, usage)
		case t.Kind() == reflect.Bool:
			v, _ := def.(bool)
			fs.Bool(name, v, usage)
		case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
			v, _ := toInt64(orZero(def))
			fs.Int64(name, v, usage)
		case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
			v, _ := toUint64(orZero(def))
			fs.Uint64(name, v, usage)
		case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
			v, _ := toFloat64(orZero(def))
			fs.Float64(name, v, usage)
		case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String:
			v, _ := def.([]string)
			fs.StringSlice(name, v, usage)
		default:
			v := ""
			if def != nil && !isDeferred(def) {
				v = fmt.Sprint(def)
			}
			fs.String(name, v, usage)
		}
	}
}

// orZero replaces deferred or missing defaults with 0 for numeric flags.
func orZero(v any) any {
	if v == nil || isDeferred(v) {
		return 0
	}
	return v
}

func isDeferred(v any) bool {
	switch v.(type) {
	case DefaultFunc, *LazyRef:
		return true
	}
	return false
}
