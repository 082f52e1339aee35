// FILE: lixenwraith/settings/watch_test.go
package settings

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatch() WatchOptions {
	opts := DefaultWatchOptions()
	opts.PollInterval = MinPollInterval
	opts.Debounce = 50 * time.Millisecond
	return opts
}

func waitForKey(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case key, ok := <-ch:
			if !ok {
				t.Fatalf("watch channel closed before %q was reported", want)
			}
			if key == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestFileWatch(t *testing.T) {
	t.Run("ReportsChangedKeys", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "[server]\nport = 8080\nhost = \"a\"\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		s := fileClass(t, r)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes := r.Watch(ctx, fastWatch())
		defer r.StopWatch()
		assert.True(t, r.IsWatching())

		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 90000\nhost = \"a\"\n"), 0644))
		waitForKey(t, changes, "server.port")

		assert.Equal(t, 90000, s.MustGet("server.port"))
		assert.Equal(t, "a", s.MustGet("server.host"))
	})

	t.Run("ReportsDeletion", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)

		changes := r.Watch(context.Background(), fastWatch())
		defer r.StopWatch()

		require.NoError(t, os.Remove(path))
		waitForKey(t, changes, EventFileDeleted)
	})

	t.Run("DeletionReportedOnce", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)

		changes := r.Watch(context.Background(), fastWatch())
		defer r.StopWatch()

		require.NoError(t, os.Remove(path))
		waitForKey(t, changes, EventFileDeleted)

		quiet := time.After(6 * MinPollInterval)
	drain:
		for {
			select {
			case key := <-changes:
				assert.NotEqual(t, EventFileDeleted, key, "deletion reported again while file is missing")
			case <-quiet:
				break drain
			}
		}

		require.NoError(t, os.WriteFile(path, []byte("debug = false\n"), 0644))
		waitForKey(t, changes, "debug")
	})

	t.Run("StopClosesChannels", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)

		changes := r.Watch(context.Background(), fastWatch())
		r.StopWatch()
		assert.False(t, r.IsWatching())

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed after StopWatch")
		}
	})

	t.Run("ContextCancelClosesChannel", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		defer r.StopWatch()

		ctx, cancel := context.WithCancel(context.Background())
		changes := r.Watch(ctx, fastWatch())
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})

	t.Run("SubscribersOutliveEachOther", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		defer r.StopWatch()

		ctx, cancel := context.WithCancel(context.Background())
		first := r.Watch(ctx, fastWatch())
		second := r.Watch(context.Background(), fastWatch())
		cancel()

		select {
		case _, ok := <-first:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("first channel not closed after cancel")
		}

		assert.True(t, r.IsWatching())
		require.NoError(t, os.WriteFile(path, []byte("debug = false\n"), 0644))
		waitForKey(t, second, "debug")
	})

	t.Run("SubscriberLimit", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "app.toml", "debug = true\n")
		r, err := NewFileRetriever(path)
		require.NoError(t, err)
		defer r.StopWatch()

		opts := fastWatch()
		opts.MaxWatchers = 1
		_ = r.Watch(context.Background(), opts)
		extra := r.Watch(context.Background(), opts)

		_, ok := <-extra
		assert.False(t, ok)
	})
}
