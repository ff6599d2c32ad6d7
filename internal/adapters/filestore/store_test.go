package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.SetMany(ctx, "cli", map[string]string{"token": "abc", "userId": "3"}))

	s2, err := New(dir)
	require.NoError(t, err)
	v, err := s2.Get(ctx, "cli", "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	info, err := os.Stat(filepath.Join(dir, "cli.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}

func TestStore_DeleteRemovesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetMany(ctx, "cli", map[string]string{"token": "abc"}))
	require.NoError(t, s.Delete(ctx, "cli", "token", "absent"))

	_, err = s.Get(ctx, "cli", "token")
	require.ErrorIs(t, err, ports.ErrNotFound)
	_, err = os.Stat(filepath.Join(dir, "cli.json"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Delete(ctx, "cli", "token"), "second delete is a no-op")
}

func TestStore_GetManyAndUntrackedKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SetMany(ctx, "ns/with slash", map[string]string{"token": "t", "theme": "dark"}))
	require.NoError(t, s.Delete(ctx, "ns/with slash", "token"))

	got, err := s.GetMany(ctx, "ns/with slash", []string{"token", "theme"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark"}, got)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cli.json"), []byte("{oops"), fileMode))
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "cli", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode namespace")
}
