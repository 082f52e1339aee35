// File: lixenwraith/settings/errors.go
package settings

import (
	"errors"
	"fmt"
)

// Configuration errors, raised while a class is being built.
var (
	ErrConfiguration  = errors.New("settings configuration error")
	ErrMissingType    = errors.New("field has neither a type nor a default value")
	ErrWriteAccessor  = errors.New("property write accessors are not supported")
	ErrDuplicateField = errors.New("duplicate field declaration")
	ErrUnknownField   = errors.New("unknown field")
	ErrHierarchy      = errors.New("inconsistent class hierarchy")
	ErrInvalidName    = errors.New("invalid name")
)

// Resolution errors. Every *ValueError matches both ErrAttribute and ErrValue.
var (
	ErrAttribute    = errors.New("attribute error")
	ErrValue        = errors.New("value error")
	ErrMissingValue = errors.New("missing value for required field")
	ErrConversion   = errors.New("value conversion failed")
	ErrNoAttribute  = errors.New("no such attribute")
	ErrCycle        = errors.New("reference cycle while resolving")
)

// ErrScopeMisuse is reported when a scope is exited out of order.
var ErrScopeMisuse = errors.New("scope exited out of order")

// Retriever signals.
var (
	// ErrNotFound tells the engine to continue with the next source.
	ErrNotFound = errors.New("value not found")
	// ErrUseDefault tells the engine to skip all remaining retrievers and use the field default.
	ErrUseDefault = errors.New("use field default")
)

// Source errors
var (
	ErrFileNotFound = errors.New("settings file not found")
	ErrValueSize    = errors.New("value exceeds maximum size")
	ErrArgsParse    = errors.New("failed to parse command-line arguments")
	ErrFileFormat   = errors.New("unable to determine settings file format")
)

// ConfigError reports a malformed class declaration.
type ConfigError struct {
	Class string
	Name  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("settings class %q: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("settings class %q, attribute %q: %v", e.Class, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// ValueError is returned by attribute reads when no value can be produced
// for a required field or when a found value cannot be converted.
type ValueError struct {
	// Field is the descriptor summary, or class.name for non-field reads.
	Field string
	// Value is the raw value that failed conversion, if any.
	Value any
	Err   error
}

func (e *ValueError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: value %v (%T): %v", e.Field, e.Value, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

func (e *ValueError) Is(target error) bool {
	return target == ErrAttribute || target == ErrValue
}

// ScopeError reports a scope token that was not on top of its class stack.
type ScopeError struct {
	Class    string
	Position int
	Depth    int
}

func (e *ScopeError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%v: class %q instance is not on the stack (depth %d)", ErrScopeMisuse, e.Class, e.Depth)
	}
	return fmt.Sprintf("%v: class %q instance at position %d, stack depth %d", ErrScopeMisuse, e.Class, e.Position, e.Depth)
}

func (e *ScopeError) Is(target error) bool { return target == ErrScopeMisuse }

func configErr(class, name string, err error) error {
	return &ConfigError{Class: class, Name: name, Err: err}
}

func conversionErr(f *Field, raw any, err error) error {
	return &ValueError{Field: f.String(), Value: raw, Err: fmt.Errorf("%w: %w", ErrConversion, err)}
}
