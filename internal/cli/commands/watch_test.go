package commands

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/internal/testutil"
)

func TestFileWatcher_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "app.rb")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(other, []byte("a"), 0o600))

	fw, err := newFileWatcher(20*time.Millisecond, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, fw.track([]string{tracked}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- fw.loop(ctx, func() []string {
			runs.Add(1)
			return []string{tracked}
		})
	}()

	// Untracked files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("b"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, runs.Load())

	// A burst of writes collapses into one run.
	for _, content := range []string{"b", "c", "d"} {
		require.NoError(t, os.WriteFile(tracked, []byte(content), 0o600))
	}
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestFileWatcher_TrackAddsDirectoriesOnce(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	fw, err := newFileWatcher(watchDebounce, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = fw.w.Close() }()

	require.NoError(t, fw.track([]string{
		filepath.Join(dir, "a.rb"),
		filepath.Join(dir, "b.rb"),
		filepath.Join(sub, "c.rb"),
	}))
	assert.Len(t, fw.dirs, 2)
	assert.Len(t, fw.files, 3)

	require.NoError(t, fw.track([]string{filepath.Join(sub, "c.rb")}))
	assert.Len(t, fw.files, 1)

	err = fw.track([]string{filepath.Join(dir, "missing", "x.rb")})
	assert.Error(t, err)
}
