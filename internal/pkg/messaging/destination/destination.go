// Package destination resolves logical destination names to queue urls.
package destination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"aws-sqs-messaging-template/internal/pkg/cache"
	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/observability/metrics"
	"aws-sqs-messaging-template/internal/pkg/queue"
	"aws-sqs-messaging-template/internal/pkg/resource"
	"aws-sqs-messaging-template/internal/pkg/retry"
)

// ErrResolution is returned when a destination cannot be resolved to a queue url.
var ErrResolution = errors.New("destination resolution failed")

// Resolver maps a destination name to a queue url.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Dynamic resolves names through the resource resolver and the queue client.
// Names that already are http(s) urls are returned unchanged.
type Dynamic struct {
	Queue      queue.Client
	Resources  resource.Resolver
	AutoCreate bool
	Attempts   int
	Delay      time.Duration
}

var _ Resolver = (*Dynamic)(nil)

func (d *Dynamic) Resolve(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty destination", ErrResolution)
	}
	if isQueueURL(name) {
		return name, nil
	}

	physical := name
	if d.Resources != nil {
		var err error
		physical, err = d.Resources.ResolveToPhysicalResourceID(ctx, name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrResolution, name, err)
		}
	}

	queueURL, err := retry.Do(ctx, d.Attempts, d.Delay, func() (string, error) {
		u, err := d.Queue.GetQueueURL(ctx, physical)
		if errors.Is(err, queue.ErrQueueNotFound) {
			return "", &retry.Permanent{Err: err}
		}
		return u, err
	})
	if errors.Is(err, queue.ErrQueueNotFound) && d.AutoCreate {
		logger.InfoCtx(ctx, "creating missing queue %s", physical)
		queueURL, err = d.Queue.CreateQueue(ctx, physical)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrResolution, name, err)
	}
	return queueURL, nil
}

func isQueueURL(name string) bool {
	u, err := url.Parse(name)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Caching memoizes another resolver's results in a cache.Client.
type Caching struct {
	Next      Resolver
	Cache     cache.Client
	KeyPrefix string
	TTL       time.Duration
}

var _ Resolver = (*Caching)(nil)

func (c *Caching) Resolve(ctx context.Context, name string) (string, error) {
	key := c.KeyPrefix + "destination-" + name

	cached, err := c.Cache.Get(ctx, key)
	if err == nil {
		metrics.DestinationResolutions.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.WarnCtx(ctx, "destination cache read failed for %s: %v", name, err)
	}
	metrics.DestinationResolutions.WithLabelValues("miss").Inc()

	queueURL, err := c.Next.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if err := c.Cache.Set(ctx, key, queueURL, c.TTL); err != nil {
		logger.WarnCtx(ctx, "destination cache write failed for %s: %v", name, err)
	}
	return queueURL, nil
}
