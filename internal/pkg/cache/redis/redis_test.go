package redisCache

import (
	"context"
	"testing"
	"time"

	"aws-sqs-messaging-template/internal/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr(), 0)
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestRedisRepository_GetMiss(t *testing.T) {
	r, _ := newTestRepository(t)

	_, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRepository(t)

	require.NoError(t, r.Set(ctx, "seen-1", "1", time.Minute))
	v, err := r.Get(ctx, "seen-1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, "seen-1")
	require.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, r.Set(ctx, "seen-2", "1", 0))
	require.NoError(t, r.Delete(ctx, "seen-2"))
	_, err = r.Get(ctx, "seen-2")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisRepository_ScanPrefix(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepository(t)

	require.NoError(t, r.Set(ctx, "dest-JsonQueue", "url-1", 0))
	require.NoError(t, r.Set(ctx, "dest-StreamQueue", "url-2", 0))
	require.NoError(t, r.Set(ctx, "other", "x", 0))

	got, err := r.ScanPrefix(ctx, "dest-")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"dest-JsonQueue":   "url-1",
		"dest-StreamQueue": "url-2",
	}, got)
}
