package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_DefaultThenPersisted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.yml")
	s := NewFileStore(path)

	dark, err := s.GetBool(ctx, KeyDarkMode, false)
	require.NoError(t, err)
	assert.False(t, dark)

	require.NoError(t, s.SetBool(ctx, KeyDarkMode, true))

	reopened := NewFileStore(path)
	dark, err = reopened.GetBool(ctx, KeyDarkMode, false)
	require.NoError(t, err)
	assert.True(t, dark)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "murmur.settings:")
	assert.Contains(t, string(raw), "dark_mode: true")
}

func TestFileStore_WrongTypeReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yml")
	require.NoError(t, os.WriteFile(path, []byte("murmur.settings:\n  dark_mode: maybe\n"), 0o600))

	dark, err := NewFileStore(path).GetBool(context.Background(), KeyDarkMode, true)
	assert.Error(t, err)
	assert.True(t, dark)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	s, err := NewRedisStore(ctx, mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	dark, err := s.GetBool(ctx, KeyDarkMode, false)
	require.NoError(t, err)
	assert.False(t, dark)

	require.NoError(t, s.SetBool(ctx, KeyDarkMode, true))
	dark, err = s.GetBool(ctx, KeyDarkMode, false)
	require.NoError(t, err)
	assert.True(t, dark)

	assert.Equal(t, "true", mr.HGet(Namespace, KeyDarkMode))
}

func TestRedisStore_URLAndPingFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = s.Close()
	mr.Close()

	_, err = NewRedisStore(context.Background(), "redis://%zz")
	assert.Error(t, err)
}
