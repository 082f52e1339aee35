package settings

import (
	"sync"
)

// Retriever is a pluggable value source. Retrieve returns the raw value for
// the field, ErrNotFound (or a nil value with a nil error) when it has
// nothing, or ErrUseDefault to make resolution skip every remaining
// retriever and use the field default. Any other error aborts resolution.
type Retriever interface {
	Retrieve(f *Field, s *Settings) (any, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(f *Field, s *Settings) (any, error)

func (fn RetrieverFunc) Retrieve(f *Field, s *Settings) (any, error) {
	return fn(f, s)
}

// MapRetriever serves values from an in-memory map keyed by field key.
type MapRetriever struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMapRetriever copies values into a new MapRetriever.
func NewMapRetriever(values map[string]any) *MapRetriever {
	m := &MapRetriever{values: make(map[string]any, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Store sets key to value.
func (m *MapRetriever) Store(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Delete removes key.
func (m *MapRetriever) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *MapRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[f.Key()]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

// Static returns a retriever that always produces value.
func Static(value any) Retriever {
	return RetrieverFunc(func(*Field, *Settings) (any, error) {
		return value, nil
	})
}

// ForceDefault is a retriever that always short-circuits to the field default.
var ForceDefault Retriever = RetrieverFunc(func(*Field, *Settings) (any, error) {
	return nil, ErrUseDefault
})
