package main

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/kubernetes"

	"aws-sqs-messaging-template/configs"
	"aws-sqs-messaging-template/internal/app/registry"
	"aws-sqs-messaging-template/internal/pkg/cache"
	memoryCache "aws-sqs-messaging-template/internal/pkg/cache/memory"
	redisCache "aws-sqs-messaging-template/internal/pkg/cache/redis"
	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/messaging/destination"
	"aws-sqs-messaging-template/internal/pkg/queue"
	memoryQueue "aws-sqs-messaging-template/internal/pkg/queue/memory"
	redisQueue "aws-sqs-messaging-template/internal/pkg/queue/redis"
	"aws-sqs-messaging-template/internal/pkg/queue/sqs"
	"aws-sqs-messaging-template/internal/pkg/resource"
	resourceK8s "aws-sqs-messaging-template/internal/pkg/resource/k8s"
)

// components are the wired dependencies shared by all commands.
type components struct {
	Config    *configs.Config
	Queue     queue.Client
	Cache     cache.Client
	Resolver  destination.Resolver
	Registry  *registry.Registry
	Clientset kubernetes.Interface // nil unless a ConfigMap or leader election needs it
}

func wire(ctx context.Context, cfg *configs.Config) (*components, error) {
	c := &components{Config: cfg}

	q, err := newQueue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}
	c.Queue = q
	c.Cache = newCache(cfg)

	if cfg.ResourceIDConfigMap != "" || cfg.LeaderElectionEnabled {
		clientset, err := resourceK8s.NewClientset()
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
		c.Clientset = clientset
	}

	var resources resource.Resolver = &resource.Static{Mappings: cfg.ResourceIDMappings}
	if cfg.ResourceIDConfigMap != "" {
		resources = &resourceK8s.ConfigMapResolver{
			Clientset: c.Clientset,
			Namespace: cfg.PodNamespace,
			Name:      cfg.ResourceIDConfigMap,
		}
	}

	c.Resolver = &destination.Caching{
		Next: &destination.Dynamic{
			Queue:      q,
			Resources:  resources,
			AutoCreate: cfg.QueueAwsSqsAutoCreate || cfg.QueueType != "sqs",
			Attempts:   cfg.QueueDestinationResolveRetries + 1,
			Delay:      time.Duration(cfg.QueueDestinationResolveRetryDelay) * time.Second,
		},
		Cache:     c.Cache,
		KeyPrefix: cfg.CacheKeyPrefix,
		TTL:       cfg.CacheDestinationTTLDuration,
	}

	c.Registry = registry.New(q, c.Resolver)
	if err := c.Registry.RegisterAll(registry.DefaultDefinitions(cfg)); err != nil {
		return nil, err
	}
	return c, nil
}

func newQueue(ctx context.Context, cfg *configs.Config) (queue.Client, error) {
	switch cfg.QueueType {
	case "redis":
		logger.Info("Using Redis queue at %s", cfg.QueueRedisEndpoint)
		return &redisQueue.RedisActions{
			Client: redisQueue.NewClient(cfg.QueueRedisEndpoint, cfg.QueueRedisDB),
			Config: redisQueueConfig(cfg),
		}, nil
	case "memory":
		logger.Info("Using in-memory queue")
		return memoryQueue.New(time.Duration(cfg.QueueAwsSqsVisibilityTimeout) * time.Second), nil
	default:
		logger.Info("Using SQS queue in %s", cfg.QueueAwsSqsRegion)
		client, err := sqs.NewClient(ctx, cfg.QueueAwsSqsRegion, cfg.QueueAwsSqsEndpoint)
		if err != nil {
			return nil, err
		}
		return &sqs.SqsActions{
			SqsClient: client,
			Config: &sqs.Config{
				WaitTimeSeconds:   cfg.QueueAwsSqsWaitTimeSeconds,
				VisibilityTimeout: cfg.QueueAwsSqsVisibilityTimeout,
			},
		}, nil
	}
}

// redisQueueConfig applies the long polling and visibility settings to the redis backend.
func redisQueueConfig(cfg *configs.Config) *redisQueue.Config {
	return &redisQueue.Config{
		KeyPrefix:         cfg.QueueRedisKeyPrefix,
		WaitTime:          cfg.QueueAwsSqsWaitTimeDuration,
		VisibilityTimeout: time.Duration(cfg.QueueAwsSqsVisibilityTimeout) * time.Second,
	}
}

func newCache(cfg *configs.Config) cache.Client {
	if cfg.CacheType == "redis" {
		return redisCache.New(redisCache.NewClient(cfg.CacheRedisEndpoint, cfg.CacheRedisDB))
	}
	return memoryCache.New(time.Minute)
}
