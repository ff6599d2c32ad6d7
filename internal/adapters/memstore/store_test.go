package memstore

import (
	"context"
	"testing"

	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "browser-1", "token")
	require.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.SetMany(ctx, "browser-1", map[string]string{"token": "abc", "userId": "7"}))
	require.NoError(t, s.SetMany(ctx, "browser-2", map[string]string{"token": "other"}))

	v, err := s.Get(ctx, "browser-1", "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	got, err := s.GetMany(ctx, "browser-1", []string{"token", "userId", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "abc", "userId": "7"}, got)

	require.NoError(t, s.Delete(ctx, "browser-1", "token", "missing"))
	_, err = s.Get(ctx, "browser-1", "token")
	require.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, 1, s.Len("browser-1"))

	v, err = s.Get(ctx, "browser-2", "token")
	require.NoError(t, err)
	assert.Equal(t, "other", v, "namespaces are isolated")
}

func TestStore_DeleteUnknownNamespace(t *testing.T) {
	s := New()
	require.NoError(t, s.Delete(context.Background(), "nope", "token"))
	assert.Zero(t, s.Len("nope"))
}
