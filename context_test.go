// FILE: lixenwraith/settings/context_test.go
package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recoverPanic(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

func TestContextStack(t *testing.T) {
	cls := NewClass("Scoped").Attr("level", Type[string](), "info").MustBuild()

	t.Run("CurrentCreatesRoot", func(t *testing.T) {
		ctx := NewContext()
		assert.Equal(t, 0, ctx.Depth(cls))

		root := ctx.Current(cls)
		assert.Same(t, root, ctx.Current(cls))
		assert.Equal(t, 1, ctx.Depth(cls))
		assert.Same(t, ctx, root.Context())
	})

	t.Run("EnterExit", func(t *testing.T) {
		ctx := NewContext()
		root := ctx.Current(cls)
		child := cls.New()

		tok := ctx.Enter(child)
		assert.Same(t, child, ctx.Current(cls))
		assert.Same(t, ctx, child.Context())
		assert.Equal(t, []*Settings{child, root}, ctx.Chain(cls))

		require.NoError(t, ctx.Exit(tok))
		assert.Same(t, root, ctx.Current(cls))
		assert.Equal(t, []*Settings{root}, ctx.Chain(cls))
	})

	t.Run("EnterWithoutRoot", func(t *testing.T) {
		ctx := NewContext()
		s := cls.New()
		tok := ctx.Enter(s)
		assert.Equal(t, 1, ctx.Depth(cls))
		assert.Same(t, s, ctx.Current(cls))
		require.NoError(t, ctx.Exit(tok))

		// The next read creates a fresh root
		assert.NotSame(t, s, ctx.Current(cls))
	})

	t.Run("ExitOutOfOrder", func(t *testing.T) {
		ctx := NewContext()
		a, b := cls.New(), cls.New()
		ta := ctx.Enter(a)
		tb := ctx.Enter(b)

		err := ctx.Exit(ta)
		require.ErrorIs(t, err, ErrScopeMisuse)
		var se *ScopeError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "Scoped", se.Class)
		assert.Equal(t, 0, se.Position)
		assert.Equal(t, 2, se.Depth)

		// The failed exit left the stack untouched
		assert.Same(t, b, ctx.Current(cls))

		require.NoError(t, ctx.Exit(tb))
		require.NoError(t, ctx.Exit(ta))

		err = ctx.Exit(ta)
		require.True(t, errors.As(err, &se))
		assert.Equal(t, -1, se.Position)
	})

	t.Run("UseExitsOnError", func(t *testing.T) {
		ctx := NewContext()
		root := ctx.Current(cls)
		child := cls.New()
		boom := errors.New("boom")

		err := ctx.Use(child, func() error {
			assert.Same(t, child, ctx.Current(cls))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Same(t, root, ctx.Current(cls))
	})

	t.Run("UseExitsOnPanic", func(t *testing.T) {
		ctx := NewContext()
		root := ctx.Current(cls)

		assert.Panics(t, func() {
			_ = ctx.Use(cls.New(), func() error { panic("inside scope") })
		})
		assert.Same(t, root, ctx.Current(cls))
	})

	t.Run("UseDetectsMisnesting", func(t *testing.T) {
		ctx := NewContext()
		r := recoverPanic(func() {
			_ = ctx.Use(cls.New(), func() error {
				ctx.Enter(cls.New())
				return nil
			})
		})
		err, ok := r.(error)
		require.True(t, ok, "expected an error panic, got %v", r)
		assert.ErrorIs(t, err, ErrScopeMisuse)
	})

	t.Run("StacksArePerClass", func(t *testing.T) {
		other := NewClass("Other").Set("x", 1).MustBuild()
		ctx := NewContext()

		ta := ctx.Enter(cls.New())
		tb := ctx.Enter(other.New())

		// Unrelated classes may be exited in any order
		require.NoError(t, ctx.Exit(ta))
		require.NoError(t, ctx.Exit(tb))
	})

	t.Run("GoContext", func(t *testing.T) {
		assert.Same(t, Background(), FromContext(context.Background()))

		sc := NewContext()
		ctx := WithContext(context.Background(), sc)
		assert.Same(t, sc, FromContext(ctx))
	})

	t.Run("FreeInstanceUsesBackground", func(t *testing.T) {
		fresh := NewClass("Free").Set("x", 1).MustBuild()
		s := fresh.New()
		assert.Same(t, Background(), s.Context())
		assert.Equal(t, 1, s.MustGet("x"))
	})
}
