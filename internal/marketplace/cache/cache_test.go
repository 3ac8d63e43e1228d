package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndScoped(t *testing.T) {
	a := Key("plugins", map[string]string{"sort": "popular", "query": "x"}, "key-1")
	b := Key("/plugins/", map[string]string{"query": "x", "sort": "popular"}, "key-1")
	assert.Equal(t, a, b, "param order and slashes must not matter")

	assert.NotEqual(t, a, Key("plugins", map[string]string{"sort": "popular", "query": "x"}, "key-2"))
	assert.NotEqual(t, a, Key("plugins", map[string]string{"sort": "popular", "query": "x"}, ""))
	assert.NotEqual(t, a, Key("themes", map[string]string{"sort": "popular", "query": "x"}, "key-1"))

	// length prefixing keeps shifted boundaries apart
	assert.NotEqual(t,
		Key("r", map[string]string{"ab": "c"}, ""),
		Key("r", map[string]string{"a": "bc"}, ""),
	)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "anonymous", Fingerprint("  "))
	fp := Fingerprint("secret")
	assert.Len(t, fp, 64)
	assert.NotContains(t, fp, "secret")
	assert.Equal(t, fp, Fingerprint(" secret "))
}

func runBackendContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k1", []byte(`{"name":"Acme"}`)))
	require.NoError(t, c.Put(ctx, "k2", []byte(`{}`)))

	payload, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Acme"}`, string(payload))

	require.NoError(t, c.ClearAll(ctx))

	for _, key := range []string{"k1", "k2"} {
		_, ok, err = c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "entry %s must be gone after ClearAll", key)
	}

	require.NoError(t, c.Put(ctx, "k1", []byte(`{"name":"Beta"}`)))
	payload, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Beta"}`, string(payload))
}

func TestMemoryCacheContract(t *testing.T) {
	runBackendContract(t, NewMemory(time.Hour, nil))
}

func TestMemoryCacheTTL(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewMemory(time.Minute, fake.Now)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v")))
	fake.Advance(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheCopiesPayload(t *testing.T) {
	c := NewMemory(time.Hour, nil)
	ctx := context.Background()
	payload := []byte("abc")
	require.NoError(t, c.Put(ctx, "k", payload))
	payload[0] = 'z'

	got, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func newRedisCache(t *testing.T, ttl time.Duration) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := NewRedis(client, "test:cache:", ttl)
	require.NoError(t, err)
	return c, mr
}

func TestRedisCacheContract(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	runBackendContract(t, c)
}

func TestRedisCacheGenerationAndTTL(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("test:cache:0:k"))

	require.NoError(t, c.ClearAll(ctx))
	generation, err := mr.Get("test:cache:generation")
	require.NoError(t, err)
	assert.Equal(t, "1", generation)

	require.NoError(t, c.Put(ctx, "k", []byte("v2")))
	assert.True(t, mr.Exists("test:cache:1:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(nil, "", 0)
	assert.Error(t, err)
}
