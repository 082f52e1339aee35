// File: lixenwraith/settings/type.go
package settings

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// ConverterFunc coerces a raw value (usually a string from an external
// source) into a typed value.
type ConverterFunc func(raw any) (any, error)

// Converters is a registry of converters keyed by target type.
// All methods are safe for concurrent use.
type Converters struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ConverterFunc
}

var defaultConverters = NewConverters()

// DefaultConverters returns the registry used by classes that do not set their own.
func DefaultConverters() *Converters {
	return defaultConverters
}

// kindTypes maps a basic kind to the builtin type whose converter serves
// named types of that kind (e.g. `type Port int`).
var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeFor[string](),
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// NewConverters returns a registry seeded with converters for strings,
// booleans, every integer and float width, durations, times and UUIDs.
func NewConverters() *Converters {
	c := &Converters{byType: make(map[reflect.Type]ConverterFunc)}

	c.Register(kindTypes[reflect.String], toString)
	c.Register(kindTypes[reflect.Bool], toBool)
	for _, k := range []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64} {
		c.Register(kindTypes[k], intConverter(kindTypes[k]))
	}
	for _, k := range []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64} {
		c.Register(kindTypes[k], uintConverter(kindTypes[k]))
	}
	for _, k := range []reflect.Kind{reflect.Float32, reflect.Float64} {
		c.Register(kindTypes[k], floatConverter(kindTypes[k]))
	}

	c.Register(reflect.TypeFor[time.Duration](), func(raw any) (any, error) {
		return cast.ToDurationE(raw)
	})
	c.Register(reflect.TypeFor[time.Time](), func(raw any) (any, error) {
		return cast.ToTimeE(raw)
	})
	c.Register(reflect.TypeFor[uuid.UUID](), toUUID)

	return c
}

// Register sets the converter for t. A nil fn removes the entry.
func (c *Converters) Register(t reflect.Type, fn ConverterFunc) *Converters {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.byType, t)
	} else {
		c.byType[t] = fn
	}
	return c
}

// RegisterConverter registers a typed converter for T.
func RegisterConverter[T any](c *Converters, fn func(raw any) (T, error)) *Converters {
	return c.Register(reflect.TypeFor[T](), func(raw any) (any, error) {
		return fn(raw)
	})
}

// Clone returns an independent copy of the registry.
func (c *Converters) Clone() *Converters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := &Converters{byType: make(map[reflect.Type]ConverterFunc, len(c.byType))}
	for t, fn := range c.byType {
		out.byType[t] = fn
	}
	return out
}

// Lookup returns the converter for t, falling back to the converter of
// t's builtin kind when t is a named basic type.
func (c *Converters) Lookup(t reflect.Type) (ConverterFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if fn, ok := c.byType[t]; ok {
		return fn, true
	}
	if base, ok := kindTypes[t.Kind()]; ok && base != t {
		if fn, ok := c.byType[base]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (c *Converters) exact(t reflect.Type) (ConverterFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.byType[t]
	return fn, ok
}

// Convert coerces raw to the declared type. Values whose runtime type
// already matches are returned unchanged. Failures wrap ErrConversion.
func (c *Converters) Convert(raw any, t TypeSpec) (any, error) {
	v, err := c.convert(raw, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return v, nil
}

func (c *Converters) convert(raw any, t TypeSpec) (any, error) {
	if t.rtype == nil || t.matches(raw) {
		return raw, nil
	}
	if t.enum != nil {
		return t.enum.coerce(raw, c)
	}
	return c.convertType(raw, t.rtype)
}

func (c *Converters) convertType(raw any, t reflect.Type) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("cannot convert nil to %s", t)
	}
	rt := reflect.TypeOf(raw)
	if rt == t || (t.Kind() == reflect.Interface && rt.Implements(t)) {
		return raw, nil
	}
	if fn, ok := c.Lookup(t); ok {
		out, err := fn(raw)
		if err != nil {
			return nil, err
		}
		return asType(out, t)
	}
	return c.fallback(raw, t)
}

// fallback converts within a kind family via reflection, and otherwise
// decodes through mapstructure with the registry's decode hooks.
func (c *Converters) fallback(raw any, t reflect.Type) (any, error) {
	rv := reflect.ValueOf(raw)
	if sameFamily(rv.Kind(), t.Kind()) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return c.decodeValue(raw, t)
}

func asType(v any, t reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type() == t:
		return v, nil
	case t.Kind() == reflect.Interface && rv.Type().Implements(t):
		return v, nil
	case sameFamily(rv.Kind(), t.Kind()) && rv.Type().ConvertibleTo(t):
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("converter returned %T, expected %s", v, t)
}

func kindFamily(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 1
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 2
	case reflect.Float32, reflect.Float64:
		return 3
	case reflect.Complex64, reflect.Complex128:
		return 4
	}
	return 100 + int(k)
}

func sameFamily(a, b reflect.Kind) bool {
	return kindFamily(a) == kindFamily(b)
}

// toString accepts strings, byte slices, numbers, booleans, errors and fmt.Stringer.
func toString(raw any) (any, error) {
	if v := reflect.ValueOf(raw); v.Kind() == reflect.String {
		return v.String(), nil
	}
	return cast.ToStringE(raw)
}

// toBool accepts booleans, numbers (0 is false) and the usual textual forms.
func toBool(raw any) (any, error) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		s := strings.ToLower(strings.TrimSpace(v.String()))
		switch s {
		case "true", "t", "yes", "y", "on", "1":
			return true, nil
		case "false", "f", "no", "n", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot convert string %q to bool", v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0, nil
	}
	return nil, fmt.Errorf("cannot convert type %T to bool", raw)
}

// toInt64 accepts numbers, booleans and strings. Strings are decimal unless
// they carry an explicit 0x, 0o or 0b prefix; a float string must be integral.
// Numeric floats truncate. The empty string is an error.
func toInt64(raw any) (int64, error) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("cannot convert unsigned integer %d to int64: overflow", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("cannot convert float %v to int64: out of range", f)
		}
		return int64(f), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		i, err := strconv.ParseInt(s, integerBase(s), 64)
		if err == nil {
			return i, nil
		}
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			if f != math.Trunc(f) {
				return 0, fmt.Errorf("cannot convert string %q to integer: fractional value", v.String())
			}
			return toInt64(f)
		}
		return 0, fmt.Errorf("cannot convert string %q to integer: %w", v.String(), err)
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to integer", raw)
}

// integerBase returns 0 (prefix-detected) for 0x, 0o and 0b literals and 10
// otherwise, so a leading zero is never read as octal.
func integerBase(s string) int {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 2 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return 0
		}
	}
	return 10
}

func toUint64(raw any) (uint64, error) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		if u, err := strconv.ParseUint(s, integerBase(s), 64); err == nil {
			return u, nil
		}
	}
	i, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("cannot convert negative value %d to unsigned integer", i)
	}
	return uint64(i), nil
}

func toFloat64(raw any) (float64, error) {
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		s := strings.TrimSpace(v.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float: %w", v.String(), err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to float", raw)
}

func intConverter(t reflect.Type) ConverterFunc {
	return func(raw any) (any, error) {
		i, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(i) {
			return nil, fmt.Errorf("value %d overflows %s", i, t)
		}
		out.SetInt(i)
		return out.Interface(), nil
	}
}

func uintConverter(t reflect.Type) ConverterFunc {
	return func(raw any) (any, error) {
		u, err := toUint64(raw)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		if out.OverflowUint(u) {
			return nil, fmt.Errorf("value %d overflows %s", u, t)
		}
		out.SetUint(u)
		return out.Interface(), nil
	}
}

func floatConverter(t reflect.Type) ConverterFunc {
	return func(raw any) (any, error) {
		f, err := toFloat64(raw)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		if out.OverflowFloat(f) {
			return nil, fmt.Errorf("value %v overflows %s", f, t)
		}
		out.SetFloat(f)
		return out.Interface(), nil
	}
}

func toUUID(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return uuid.Parse(strings.TrimSpace(v))
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case [16]byte:
		return uuid.UUID(v), nil
	case fmt.Stringer:
		return uuid.Parse(v.String())
	}
	return nil, fmt.Errorf("cannot convert type %T to uuid", raw)
}
