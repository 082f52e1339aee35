// FILE: lixenwraith/settings/context.go
package settings

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Context tracks the current instance of every settings class. Each class
// has its own stack, so scopes for unrelated classes nest independently.
//
// A Context is safe for concurrent use, but "current" is scope-relative:
// goroutines that scope instances independently should each use their own
// Context, carried with WithContext/FromContext.
type Context struct {
	mu     sync.Mutex
	stacks map[*Class][]*Settings
	logger zerolog.Logger
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger used for resolution and scope events.
func WithLogger(logger zerolog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates an empty Context. Logging is disabled unless WithLogger is given.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		stacks: make(map[*Class][]*Settings),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var background = NewContext()

// Background returns the process-wide Context used by instances that were
// never entered into or created by another Context.
func Background() *Context {
	return background
}

// Token identifies one Enter call and must be passed to Exit.
type Token struct {
	class *Class
	inst  *Settings
	depth int
}

// Current returns the active instance of cls, creating and pushing a root
// instance on first use.
func (c *Context) Current(cls *Class) *Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked(cls)
}

func (c *Context) currentLocked(cls *Class) *Settings {
	stack := c.stacks[cls]
	if len(stack) == 0 {
		root := cls.New()
		root.bind(c)
		c.stacks[cls] = []*Settings{root}
		c.logger.Debug().Str("class", cls.name).Msg("created root settings instance")
		return root
	}
	return stack[len(stack)-1]
}

// Enter makes s the current instance of its class. The previous current
// instance becomes its parent in the chain.
func (c *Context) Enter(s *Settings) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := append(c.stacks[s.class], s)
	c.stacks[s.class] = stack
	s.bind(c)

	c.logger.Debug().Str("class", s.class.name).Int("depth", len(stack)).Msg("entered settings scope")
	return Token{class: s.class, inst: s, depth: len(stack)}
}

// Exit pops the scope opened by t. Exiting a scope that is not the
// innermost one for its class is a *ScopeError and leaves the stack unchanged.
func (c *Context) Exit(t Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := c.stacks[t.class]
	if len(stack) != t.depth || stack[len(stack)-1] != t.inst {
		pos := -1
		for i, s := range stack {
			if s == t.inst {
				pos = i
			}
		}
		return &ScopeError{Class: t.class.name, Position: pos, Depth: len(stack)}
	}

	stack[len(stack)-1] = nil
	c.stacks[t.class] = stack[:len(stack)-1]
	c.logger.Debug().Str("class", t.class.name).Int("depth", len(stack)-1).Msg("exited settings scope")
	return nil
}

// Use runs fn with s entered, exiting on every return path including panics.
// A failed exit means scopes were mis-nested inside fn and panics with the
// *ScopeError.
func (c *Context) Use(s *Settings, fn func() error) error {
	tok := c.Enter(s)
	defer func() {
		if err := c.Exit(tok); err != nil {
			panic(err)
		}
	}()
	return fn()
}

// Chain returns the current instance of cls followed by each ancestor,
// most recently entered first, ending at the root.
func (c *Context) Chain(cls *Class) []*Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentLocked(cls)
	return reversed(c.stacks[cls])
}

// ancestors returns the instances below s on its class stack, nearest
// first. An instance that is not on the stack sees the whole stack.
func (c *Context) ancestors(s *Settings) []*Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := c.stacks[s.class]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == s {
			return reversed(stack[:i])
		}
	}
	return reversed(stack)
}

// Depth returns the number of instances on cls's stack.
func (c *Context) Depth(cls *Class) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stacks[cls])
}

func reversed(stack []*Settings) []*Settings {
	out := make([]*Settings, len(stack))
	for i, s := range stack {
		out[len(stack)-1-i] = s
	}
	return out
}

// ctxKey is an unexported type to prevent collisions with context keys from other packages.
type ctxKey struct{}

// WithContext returns a copy of ctx carrying sc.
func WithContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext extracts the settings Context from ctx, or Background if none was set.
func FromContext(ctx context.Context) *Context {
	if sc, ok := ctx.Value(ctxKey{}).(*Context); ok && sc != nil {
		return sc
	}
	return background
}
