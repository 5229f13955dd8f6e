// Package listener consumes a destination with a pool of workers and hands
// every message to a Handler.
package listener

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"aws-sqs-messaging-template/internal/pkg/cache"
	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/messaging/destination"
	"aws-sqs-messaging-template/internal/pkg/messaging/message"
	"aws-sqs-messaging-template/internal/pkg/observability/metrics"
	"aws-sqs-messaging-template/internal/pkg/queue"
)

// Handler processes one received message.
type Handler func(ctx context.Context, msg *message.Message) error

// DeletionPolicy decides when a processed message is deleted from the queue.
type DeletionPolicy string

const (
	DeleteAlways    DeletionPolicy = "always"
	DeleteOnSuccess DeletionPolicy = "on-success"
	DeleteNever     DeletionPolicy = "never"
)

func ParseDeletionPolicy(s string) (DeletionPolicy, error) {
	switch p := DeletionPolicy(s); p {
	case DeleteAlways, DeleteOnSuccess, DeleteNever:
		return p, nil
	case "":
		return DeleteOnSuccess, nil
	default:
		return "", fmt.Errorf("unknown deletion policy %q", s)
	}
}

const (
	markerProcessing = "processing"
	markerDone       = "done"
)

// Config tunes the polling loop.
type Config struct {
	WorkerPoolSize   int
	PollingInterval  time.Duration
	DeletionPolicy   DeletionPolicy
	DeduplicationTTL time.Duration
	KeyPrefix        string
}

// Listener polls Destination and dispatches messages to Handler.
// Cache is optional and enables deduplication of redelivered messages.
type Listener struct {
	Queue       queue.Client
	Resolver    destination.Resolver
	Cache       cache.Client
	Destination string
	Handler     Handler
	Config      Config
}

// Run polls until ctx is done and waits for in-progress messages to finish.
func (l *Listener) Run(ctx context.Context) error {
	if l.Handler == nil {
		return errors.New("listener handler is nil")
	}
	queueURL, err := l.Resolver.Resolve(ctx, l.Destination)
	if err != nil {
		return err
	}

	poolSize := max(l.Config.WorkerPoolSize, 1)
	jobs := make(chan types.Message, poolSize)

	var wg sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				l.process(ctx, queueURL, m)
			}
		}()
	}

	logger.Info("Listening on %s with %d workers", l.Destination, poolSize)
	l.poll(ctx, queueURL, jobs)
	close(jobs)
	wg.Wait()
	logger.Info("Listener on %s stopped", l.Destination)
	return nil
}

func (l *Listener) poll(ctx context.Context, queueURL string, jobs chan<- types.Message) {
	batch := int32(min(max(l.Config.WorkerPoolSize, 1), 10))
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := l.Queue.GetMessages(ctx, queueURL, batch)
		if err != nil && ctx.Err() == nil {
			logger.Error("Failed to get messages from %s: %s", l.Destination, err)
			metrics.MessagesFailed.WithLabelValues(l.Destination, "receive").Inc()
		}
		metrics.ListenerBatchSize.Set(float64(len(messages)))

		for _, m := range messages {
			select {
			case jobs <- m:
			case <-ctx.Done():
				logger.WarnCtx(ctx, "Context cancelled, %d messages left for redelivery", len(messages))
				return
			}
		}

		if len(messages) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.Config.PollingInterval):
		}
	}
}

func (l *Listener) process(ctx context.Context, queueURL string, m types.Message) {
	msg := message.FromSQS(m, l.Destination)
	id := aws.ToString(m.MessageId)
	ctx = logger.WithTraceID(ctx, id)
	key := l.Config.KeyPrefix + "message-" + id

	if l.Cache != nil {
		marker, err := l.Cache.Get(ctx, key)
		switch {
		case err == nil && marker == markerDone:
			logger.WarnCtx(ctx, "Duplicate message detected")
			l.settle(ctx, queueURL, m, true)
			return
		case err == nil:
			// still being handled elsewhere; the queue redelivers it after the visibility timeout
			logger.WarnCtx(ctx, "Message is already being processed, leaving it for redelivery")
			return
		case !errors.Is(err, cache.ErrMiss):
			logger.ErrorCtx(ctx, "Failed to read message marker: %s", err)
		}
		if err := l.Cache.Set(ctx, key, markerProcessing, l.Config.DeduplicationTTL); err != nil {
			logger.ErrorCtx(ctx, "Failed to cache message marker: %s", err)
		}
	}

	metrics.MessagesReceived.WithLabelValues(l.Destination).Inc()
	start := time.Now()
	err := l.handle(ctx, msg)
	metrics.MessageProcessingTime.Observe(time.Since(start).Seconds())

	if err != nil {
		logger.ErrorCtx(ctx, "Handler failed: %s", err)
		metrics.MessagesFailed.WithLabelValues(l.Destination, "handle").Inc()
		if l.Cache != nil {
			// allow redelivery to be processed
			if delErr := l.Cache.Delete(ctx, key); delErr != nil {
				logger.ErrorCtx(ctx, "Failed to clear message marker: %s", delErr)
			}
		}
	} else if l.Cache != nil {
		if err := l.Cache.Set(ctx, key, markerDone, l.Config.DeduplicationTTL); err != nil {
			logger.ErrorCtx(ctx, "Failed to cache message marker: %s", err)
		}
	}

	l.settle(ctx, queueURL, m, err == nil)
}

// settle applies the deletion policy to a handled message.
func (l *Listener) settle(ctx context.Context, queueURL string, m types.Message, succeeded bool) {
	switch l.Config.DeletionPolicy {
	case DeleteAlways:
		l.delete(ctx, queueURL, m)
	case DeleteNever:
	default:
		if succeeded {
			l.delete(ctx, queueURL, m)
		}
	}
}

func (l *Listener) handle(ctx context.Context, msg *message.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "Handler panic: %v\nStack: %s", r, string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return l.Handler(ctx, msg)
}

func (l *Listener) delete(ctx context.Context, queueURL string, m types.Message) {
	if err := l.Queue.DeleteMessage(ctx, queueURL, m); err != nil {
		logger.ErrorCtx(ctx, "Failed to delete message: %s", err)
		metrics.MessagesFailed.WithLabelValues(l.Destination, "delete").Inc()
	}
}

// InFlight returns the ids of messages currently being handled. It needs a Cache.
func (l *Listener) InFlight(ctx context.Context) ([]string, error) {
	if l.Cache == nil {
		return nil, nil
	}
	prefix := l.Config.KeyPrefix + "message-"
	entries, err := l.Cache.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var ids []string
	for key, value := range entries {
		if value == markerProcessing {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
	}
	return ids, nil
}
