package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/filestore"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/memstore"
)

func TestOpenStore_Memory(t *testing.T) {
	kv, closeFn, err := OpenStore(context.Background(), StoreConfig{
		Store:  config.StoreConfig{Backend: config.StoreBackendMemory},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, kv)
	assert.NoError(t, closeFn())
}

func TestOpenStore_File(t *testing.T) {
	dir := t.TempDir()
	kv, closeFn, err := OpenStore(context.Background(), StoreConfig{
		Store:  config.StoreConfig{Backend: config.StoreBackendFile, FileDir: dir},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	assert.IsType(t, &filestore.Store{}, kv)
	assert.NoError(t, closeFn())

	ctx := context.Background()
	require.NoError(t, kv.SetMany(ctx, "browser-1", map[string]string{"token": "abc"}))
	v, err := kv.Get(ctx, "browser-1", "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, closeFn, err := OpenStore(context.Background(), StoreConfig{
		Store: config.StoreConfig{Backend: "sqlite"},
	})
	require.Error(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	_, closeFn, err := OpenStore(context.Background(), StoreConfig{
		Store:  config.StoreConfig{Backend: config.StoreBackendRedis, RedisKeyPrefix: "kalyani:creds:"},
		Redis:  config.RedisConfig{URI: "127.0.0.1:1"},
		Logger: discardLogger(),
	})
	require.Error(t, err)
	assert.NoError(t, closeFn())
}
