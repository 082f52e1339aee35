// FILE: lixenwraith/settings/resolve.go
package settings

import (
	"errors"
	"fmt"
)

// Source identifies where a resolved value came from.
type Source int

const (
	// SourceNone means nothing was found and the field is optional.
	SourceNone Source = iota
	// SourceDirect is a value set on the instance itself.
	SourceDirect
	// SourceAncestor is a value set on an enclosing instance of the same class.
	SourceAncestor
	// SourceFieldRetriever is the field's own retriever.
	SourceFieldRetriever
	// SourceInstanceRetriever is a retriever added to the instance.
	SourceInstanceRetriever
	// SourceAncestorRetriever is a retriever added to an enclosing instance.
	SourceAncestorRetriever
	// SourceClassRetriever is a class-level default retriever.
	SourceClassRetriever
	// SourceDefault is the field default.
	SourceDefault
	// SourceClass is a non-field class member.
	SourceClass
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceDirect:
		return "direct"
	case SourceAncestor:
		return "ancestor"
	case SourceFieldRetriever:
		return "field-retriever"
	case SourceInstanceRetriever:
		return "instance-retriever"
	case SourceAncestorRetriever:
		return "ancestor-retriever"
	case SourceClassRetriever:
		return "class-retriever"
	case SourceDefault:
		return "default"
	case SourceClass:
		return "class"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Resolution describes one attribute read.
type Resolution struct {
	Field  *Field
	Source Source
	// Instance holds the direct value or retriever that produced the value.
	Instance *Settings
	// Class owns the default retriever that produced the value.
	Class *Class
	// Raw is the value before conversion, with lazy references evaluated.
	Raw any
	// Value is the final value.
	Value any
	// Converted is false when Raw already had the declared type and was returned as-is.
	Converted bool
}

// visit marks one field read in progress, for cycle detection across lazy references.
type visit struct {
	s *Settings
	f *Field
}

type trail []visit

func (t trail) push(s *Settings, f *Field) (trail, bool) {
	for _, v := range t {
		if v.s == s && v.f == f {
			return t, false
		}
	}
	return append(t[:len(t):len(t)], visit{s: s, f: f}), true
}

// resolve runs the full priority order for f on s:
// direct values (self, then nearest ancestor), retrievers (field, instance,
// ancestors' instances, class MRO), the default, then conversion.
func (s *Settings) resolve(f *Field, tr trail) (Resolution, error) {
	res := Resolution{Field: f}

	tr, ok := tr.push(s, f)
	if !ok {
		return res, &ValueError{Field: f.String(), Err: ErrCycle}
	}

	ctx := s.Context()
	raw, err := s.find(ctx, f, &res, tr)
	if err != nil {
		return res, err
	}
	res.Raw = raw

	if raw == nil {
		if f.required {
			return res, &ValueError{Field: f.String(), Err: ErrMissingValue}
		}
		res.Source = SourceNone
		s.logResolution(ctx, &res)
		return res, nil
	}

	res.Converted = !f.typ.matches(raw)
	res.Value, err = s.class.coerce(f, raw)
	if err != nil {
		return res, err
	}
	s.logResolution(ctx, &res)
	return res, nil
}

// find returns the raw value from the first source that has one.
func (s *Settings) find(ctx *Context, f *Field, res *Resolution, tr trail) (any, error) {
	ancestors := ctx.ancestors(s)

	v, state := s.direct(f.name)
	if state == directValue {
		res.Source, res.Instance = SourceDirect, s
		return deref(ctx, v, tr)
	}
	if state == directNone {
		for _, a := range ancestors {
			v, state := a.direct(f.name)
			if state == directValue {
				res.Source, res.Instance = SourceAncestor, a
				return deref(ctx, v, tr)
			}
			if state == directDefault {
				break
			}
		}
	}

	v, found, err := s.retrieve(f, ancestors, res)
	if err != nil {
		return nil, err
	}
	if found {
		return deref(ctx, v, tr)
	}

	res.Instance, res.Class = nil, nil
	def, ok := f.Default()
	if !ok {
		res.Source = SourceNone
		return nil, nil
	}
	res.Source = SourceDefault
	if fn, isFunc := def.(DefaultFunc); isFunc {
		computed, err := fn()
		if err != nil {
			return nil, fmt.Errorf("computing default for %s: %w", f, err)
		}
		def = computed
	}
	return deref(ctx, def, tr)
}

// candidate is one retriever together with where it is attached.
type candidate struct {
	r      Retriever
	source Source
	inst   *Settings
	class  *Class
}

// candidates lists retrievers in the fixed consultation order.
func (s *Settings) candidates(f *Field, ancestors []*Settings) []candidate {
	var out []candidate
	if f.retriever != nil {
		out = append(out, candidate{r: f.retriever, source: SourceFieldRetriever})
	}
	for _, r := range s.Retrievers() {
		out = append(out, candidate{r: r, source: SourceInstanceRetriever, inst: s})
	}
	for _, a := range ancestors {
		for _, r := range a.Retrievers() {
			out = append(out, candidate{r: r, source: SourceAncestorRetriever, inst: a})
		}
	}
	for _, c := range s.class.mro {
		for _, r := range c.DefaultRetrievers() {
			out = append(out, candidate{r: r, source: SourceClassRetriever, class: c})
		}
	}
	return out
}

func (s *Settings) retrieve(f *Field, ancestors []*Settings, res *Resolution) (any, bool, error) {
	for _, c := range s.candidates(f, ancestors) {
		v, err := c.r.Retrieve(f, s)
		switch {
		case errors.Is(err, ErrUseDefault):
			return nil, false, nil
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, false, fmt.Errorf("%s: %s failed: %w", f, c.source, err)
		case v == nil:
			continue
		case v == Default:
			return nil, false, nil
		}
		res.Source, res.Instance, res.Class = c.source, c.inst, c.class
		return v, true, nil
	}
	return nil, false, nil
}

// deref evaluates lazy references found at any stage.
func deref(ctx *Context, v any, tr trail) (any, error) {
	if ref, ok := v.(*LazyRef); ok {
		return ref.eval(ctx, tr)
	}
	return v, nil
}

func (s *Settings) logResolution(ctx *Context, res *Resolution) {
	ctx.logger.Debug().
		Str("class", s.class.name).
		Str("field", res.Field.name).
		Stringer("source", res.Source).
		Bool("converted", res.Converted).
		Msg("resolved setting")
}
