package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("HOOKRUN_HOME", "/custom/home")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/home", dir)

	t.Setenv("HOOKRUN_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	dir, err = DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/hookrun", dir)

	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/dev")
	dir, err = DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/dev/.cache/hookrun", dir)
}

func TestStore_RecordAndLookup(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, found, err := s.Lookup(ctx, "https://github.com/psf/black", "22.3.0")
	require.NoError(t, err)
	assert.False(t, found)

	dir, err := s.NewRepoDir()
	require.NoError(t, err)
	assert.Equal(t, s.Dir(), filepath.Dir(dir))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o750))

	require.NoError(t, s.Record(ctx, "https://github.com/psf/black", "22.3.0", dir))

	got, found, err := s.Lookup(ctx, "https://github.com/psf/black", "22.3.0")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, dir, got)

	_, found, err = s.Lookup(ctx, "https://github.com/psf/black", "23.1.0")
	require.NoError(t, err)
	assert.False(t, found, "a different rev is a different clone")
}

func TestStore_StaleEntryDropped(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Record(ctx, "https://example.com/gone", "v1", filepath.Join(s.Dir(), "repo-missing")))

	_, found, err := s.Lookup(ctx, "https://example.com/gone", "v1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Clean(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	dir, err := s.NewRepoDir()
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o750))
	require.NoError(t, s.Record(ctx, "u", "r", dir))

	require.NoError(t, s.Clean(ctx))

	assert.NoDirExists(t, dir)
	assert.FileExists(t, filepath.Join(s.Dir(), DBFileName))
	_, found, err := s.Lookup(ctx, "u", "r")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileLock_Exclusive(t *testing.T) {
	dir := t.TempDir()

	first := NewFileLock(dir)
	require.NoError(t, first.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	second := NewFileLock(dir)
	assert.ErrorIs(t, second.Lock(ctx), context.DeadlineExceeded)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock(context.Background()))
	require.NoError(t, second.Unlock())
}

func TestFileLock_WaitsForRelease(t *testing.T) {
	dir := t.TempDir()

	holder := NewFileLock(dir)
	require.NoError(t, holder.Lock(context.Background()))
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = holder.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	waiter := NewFileLock(dir)
	require.NoError(t, waiter.Lock(ctx))
	require.NoError(t, waiter.Unlock())
}

func TestFileLock_CancelledWaitLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()

	holder := NewFileLock(dir)
	require.NoError(t, holder.Lock(context.Background()))

	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		assert.ErrorIs(t, NewFileLock(dir).Lock(ctx), context.DeadlineExceeded)
		cancel()
	}
	require.NoError(t, holder.Unlock())

	// give any stray waiter the chance to grab the lock before checking
	time.Sleep(3 * lockPollInterval)

	readyCtx, cancel := context.WithTimeout(context.Background(), lockPollInterval)
	defer cancel()
	next := NewFileLock(dir)
	require.NoError(t, next.Lock(readyCtx), "a cancelled waiter still holds the lock")
	require.NoError(t, next.Unlock())
}

func TestFileLock_WithLock(t *testing.T) {
	ran := false
	err := NewFileLock(t.TempDir()).WithLock(context.Background(), func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
