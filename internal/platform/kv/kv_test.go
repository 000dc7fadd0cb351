package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "acm-contests")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "acm-contests", []byte(`{"contests":[]}`)))
	got, err := s.Get(ctx, "acm-contests")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contests":[]}`, string(got))

	require.NoError(t, s.Set(ctx, "acm-contests", []byte(`{"contests":[{"id":"c1"}]}`)))
	got, err = s.Get(ctx, "acm-contests")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contests":[{"id":"c1"}]}`, string(got))

	require.NoError(t, s.Delete(ctx, "acm-contests"))
	_, err = s.Get(ctx, "acm-contests")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// deleting a missing key is fine
	require.NoError(t, s.Delete(ctx, "acm-contests"))
	require.NoError(t, s.Close())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	quota := errors.New("quota exceeded")

	s.SetFailWrites(quota)
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), quota)
	assert.Equal(t, 0, s.Len())

	s.SetFailWrites(nil)
	assert.NoError(t, s.Set(ctx, "k", []byte("v")))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_SanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a_b_.._c.json"), s.path("a/b/../c"))
}

func TestFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "acm.db"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: "FILE", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
