package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/adminconsole/internal/domain/providers"
	redisclient "github.com/zatekoja/adminconsole/internal/infrastructure/clients/redis"
)

func newRedisAdapter(t *testing.T) (providers.CacheProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAdapter(redisclient.NewFromClient(client)), mr
}

func TestRedisAdapter_GetSetDelete(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "list:historico:p1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "list:historico:p1", []byte(`{"data":[]}`), 60))
	got, err := adapter.Get(ctx, "list:historico:p1")
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(got))
	assert.Equal(t, 60*time.Second, mr.TTL("list:historico:p1"))

	require.NoError(t, adapter.Delete(ctx, "list:historico:p1"))
	assert.False(t, mr.Exists("list:historico:p1"))
}

func TestRedisAdapter_DeletePattern(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	// more keys than one SCAN batch
	for i := 0; i < scanBatch+25; i++ {
		require.NoError(t, mr.Set("list:historico:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, mr.Set("list:transacoes:1", "y"))

	require.NoError(t, adapter.DeletePattern(ctx, "list:historico:*"))

	assert.Equal(t, []string{"list:transacoes:1"}, mr.Keys())
}

func TestRedisAdapter_ServerDown(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	mr.Close()

	_, err := adapter.Get(context.Background(), "list:historico:p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)
}
