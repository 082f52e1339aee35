// FILE: lixenwraith/settings/lazy.go
package settings

import "fmt"

// LazyRef is a live pointer to a field of a class. Every read resolves the
// field on whichever instance of that class is current at read time;
// nothing is cached. Used as a default, the referenced value is converted
// to the referencing field's type.
type LazyRef struct {
	class *Class
	field *Field
}

// Class returns the referenced class.
func (r *LazyRef) Class() *Class { return r.class }

// Field returns the referenced field descriptor.
func (r *LazyRef) Field() *Field { return r.field }

func (r *LazyRef) String() string {
	return fmt.Sprintf("ref(%s.%s)", r.class.name, r.field.name)
}

// Get resolves the field on the current instance in Background.
func (r *LazyRef) Get() (any, error) {
	return r.GetIn(background)
}

// GetIn resolves the field on the current instance in ctx.
func (r *LazyRef) GetIn(ctx *Context) (any, error) {
	return r.eval(ctx, nil)
}

func (r *LazyRef) eval(ctx *Context, tr trail) (any, error) {
	res, err := ctx.Current(r.class).resolve(r.field, tr)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Proxy reads attributes from whichever instance of a class is current,
// the class-level counterpart of reading from an instance.
type Proxy struct {
	ctx   *Context
	class *Class
}

// Proxy returns a Proxy for cls bound to c.
func (c *Context) Proxy(cls *Class) *Proxy {
	return &Proxy{ctx: c, class: cls}
}

// Current returns the instance reads are served from right now.
func (p *Proxy) Current() *Settings {
	return p.ctx.Current(p.class)
}

// Get resolves name on the current instance.
func (p *Proxy) Get(name string) (any, error) {
	return p.Current().Get(name)
}
