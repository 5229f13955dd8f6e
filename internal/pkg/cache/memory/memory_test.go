package memoryCache

import (
	"context"
	"testing"
	"time"

	"aws-sqs-messaging-template/internal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	r := New(time.Minute)

	_, err := r.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, r.Set(ctx, "dest-JsonQueue", "https://sqs.local/q/JsonQueue", 0))
	require.NoError(t, r.Set(ctx, "count", 3, 0))
	require.NoError(t, r.Set(ctx, "raw", []byte("bytes"), 0))

	v, err := r.Get(ctx, "dest-JsonQueue")
	require.NoError(t, err)
	assert.Equal(t, "https://sqs.local/q/JsonQueue", v)

	v, err = r.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = r.Get(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, "bytes", v)

	require.NoError(t, r.Delete(ctx, "count"))
	_, err = r.Get(ctx, "count")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRepository_Expiration(t *testing.T) {
	ctx := context.Background()
	r := New(time.Minute)

	require.NoError(t, r.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := r.Get(ctx, "short")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRepository_ScanPrefix(t *testing.T) {
	ctx := context.Background()
	r := New(time.Minute)

	require.NoError(t, r.Set(ctx, "dest-a", "1", 0))
	require.NoError(t, r.Set(ctx, "dest-b", "2", 0))
	require.NoError(t, r.Set(ctx, "seen-c", "3", 0))

	got, err := r.ScanPrefix(ctx, "dest-")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dest-a": "1", "dest-b": "2"}, got)
}
