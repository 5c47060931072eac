package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcher_RunsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0644))

	var calls atomic.Int32
	called := make(chan struct{}, 8)
	onChange := func(context.Context) error {
		calls.Add(1)
		called <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := New(path, 50*time.Millisecond, zaptest.NewLogger(t))
	go func() { done <- w.Run(ctx, onChange) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n2\n"), 0644))

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes is debounced into one call")
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "data.csv"), 0, nil)
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestWatcher_Relevant(t *testing.T) {
	w := New("/data/in.csv", 0, nil)
	assert.True(t, w.relevant(fsnotify.Event{Name: "/data/in.csv", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/data/./in.csv", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/data/in.csv", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/data/out.csv", Op: fsnotify.Write}))
}
