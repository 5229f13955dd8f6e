package destination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoryCache "aws-sqs-messaging-template/internal/pkg/cache/memory"
	memoryQueue "aws-sqs-messaging-template/internal/pkg/queue/memory"
	"aws-sqs-messaging-template/internal/pkg/resource"
)

type countingResolver struct {
	calls int
	url   string
	err   error
}

func (c *countingResolver) Resolve(context.Context, string) (string, error) {
	c.calls++
	return c.url, c.err
}

func TestDynamic_PassesThroughURL(t *testing.T) {
	d := &Dynamic{Queue: memoryQueue.New(time.Second)}
	u := "https://sqs.us-east-1.amazonaws.com/123456789012/JsonQueue"

	got, err := d.Resolve(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestDynamic_ResolvesThroughResources(t *testing.T) {
	ctx := context.Background()
	q := memoryQueue.New(time.Second)
	want, err := q.CreateQueue(ctx, "prod-json-queue")
	require.NoError(t, err)

	d := &Dynamic{
		Queue:     q,
		Resources: &resource.Static{Mappings: map[string]string{"JsonQueue": "prod-json-queue"}},
		Attempts:  2,
	}
	got, err := d.Resolve(ctx, "JsonQueue")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDynamic_MissingQueue(t *testing.T) {
	d := &Dynamic{Queue: memoryQueue.New(time.Second), Attempts: 3, Delay: time.Hour}

	_, err := d.Resolve(context.Background(), "StreamQueue")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestDynamic_AutoCreate(t *testing.T) {
	ctx := context.Background()
	q := memoryQueue.New(time.Second)
	d := &Dynamic{Queue: q, AutoCreate: true}

	got, err := d.Resolve(ctx, "StreamQueue")
	require.NoError(t, err)
	assert.Equal(t, memoryQueue.URLPrefix+"StreamQueue", got)

	again, err := q.GetQueueURL(ctx, "StreamQueue")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestDynamic_EmptyName(t *testing.T) {
	d := &Dynamic{Queue: memoryQueue.New(time.Second)}
	_, err := d.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrResolution)
}

func TestCaching_ResolvesOnce(t *testing.T) {
	next := &countingResolver{url: "memory://JsonQueue"}
	c := &Caching{Next: next, Cache: memoryCache.New(time.Minute), KeyPrefix: "test-", TTL: time.Minute}

	for i := 0; i < 3; i++ {
		got, err := c.Resolve(context.Background(), "JsonQueue")
		require.NoError(t, err)
		assert.Equal(t, "memory://JsonQueue", got)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCaching_DoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{err: errors.New("boom")}
	c := &Caching{Next: next, Cache: memoryCache.New(time.Minute)}

	_, err := c.Resolve(context.Background(), "JsonQueue")
	require.Error(t, err)
	_, err = c.Resolve(context.Background(), "JsonQueue")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}
