package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines all environment variables and derived config for the messaging template.
type Config struct {
	// Transformed time.Duration fields (not loaded from env directly)
	QueueAwsSqsWaitTimeDuration   time.Duration `env:"-"` // Long polling wait for SQS and redis (duration)
	CacheDestinationTTLDuration   time.Duration `env:"-"` // Resolved queue url ttl (duration)
	ListenerPollingDuration       time.Duration `env:"-"` // Listener polling interval (duration)
	ListenerDeduplicationDuration time.Duration `env:"-"` // Listener dedup window (duration)

	PodName                string `env:"POD_NAME"`
	PodNamespace           string `env:"POD_NAMESPACE" envDefault:"default"`
	LeaderElectionEnabled  bool   `env:"LEADER_ELECTION_ENABLED" envDefault:"false"`
	LeaderElectionLockName string `env:"LEADER_ELECTION_LOCK_NAME" envDefault:"sqs-messaging-template-lock"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	QueueType                         string `env:"QUEUE_TYPE" envDefault:"sqs"`
	QueueAwsSqsRegion                 string `env:"QUEUE_AWS_SQS_REGION"`
	QueueAwsSqsEndpoint               string `env:"QUEUE_AWS_SQS_ENDPOINT"`
	QueueAwsSqsWaitTimeSeconds        int32  `env:"QUEUE_AWS_SQS_WAIT_TIME_SECONDS" envDefault:"20"`
	QueueAwsSqsVisibilityTimeout      int32  `env:"QUEUE_AWS_SQS_VISIBILITY_TIMEOUT" envDefault:"30"`
	QueueAwsSqsAutoCreate             bool   `env:"QUEUE_AWS_SQS_AUTO_CREATE" envDefault:"false"`
	QueueRedisEndpoint                string `env:"REDIS_QUEUE_ENDPOINT"`
	QueueRedisKeyPrefix               string `env:"REDIS_QUEUE_KEY_PREFIX" envDefault:"queue-"`
	QueueRedisDB                      int    `env:"REDIS_QUEUE_DB" envDefault:"0"`
	QueueDestinationResolveRetries    int    `env:"QUEUE_DESTINATION_RESOLVE_RETRIES" envDefault:"2"`
	QueueDestinationResolveRetryDelay int    `env:"QUEUE_DESTINATION_RESOLVE_RETRY_DELAY" envDefault:"1"`

	CacheType                  string `env:"CACHE_TYPE" envDefault:"memory"`
	CacheRedisEndpoint         string `env:"CACHE_REDIS_ENDPOINT"`
	CacheRedisDB               int    `env:"CACHE_REDIS_DB" envDefault:"0"`
	CacheKeyPrefix             string `env:"CACHE_KEY_PREFIX" envDefault:"sqs-template-"`
	CacheDestinationTTLSeconds int    `env:"CACHE_DESTINATION_TTL_SECONDS" envDefault:"300"`

	ResourceIDMappings  map[string]string `env:"RESOURCE_ID_MAPPINGS" envKeyValSeparator:"="`
	ResourceIDConfigMap string            `env:"RESOURCE_ID_CONFIGMAP"`

	TemplateJSONDestination   string `env:"TEMPLATE_JSON_DESTINATION" envDefault:"JsonQueue"`
	TemplateStreamDestination string `env:"TEMPLATE_STREAM_DESTINATION" envDefault:"StreamQueue"`

	ListenerWorkerPoolSize       int    `env:"LISTENER_WORKER_POOL_SIZE" envDefault:"10"`
	ListenerPollingInterval      int    `env:"LISTENER_POLLING_INTERVAL" envDefault:"1"`
	ListenerDeletionPolicy       string `env:"LISTENER_DELETION_POLICY" envDefault:"on-success"`
	ListenerDeduplicationSeconds int    `env:"LISTENER_DEDUPLICATION_SECONDS" envDefault:"300"`
}

// Parse loads configuration from environment variables, validates and normalizes it.
func Parse() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.normalize()

	return &cfg, nil
}

// validate performs all required configuration checks.
func (c *Config) validate() error {
	switch c.QueueType {
	case "sqs":
		if c.QueueAwsSqsRegion == "" {
			return errors.New("QUEUE_AWS_SQS_REGION is required for SQS queue type")
		}
		if c.QueueAwsSqsWaitTimeSeconds < 0 || c.QueueAwsSqsWaitTimeSeconds > 20 {
			return errors.New("QUEUE_AWS_SQS_WAIT_TIME_SECONDS must be between 0 and 20")
		}
	case "redis":
		if c.QueueRedisEndpoint == "" {
			return errors.New("REDIS_QUEUE_ENDPOINT is required for Redis queue type")
		}
	case "memory":
	default:
		return errors.New("QUEUE_TYPE must be 'sqs', 'redis' or 'memory'")
	}

	switch c.CacheType {
	case "redis":
		if c.CacheRedisEndpoint == "" {
			return errors.New("CACHE_REDIS_ENDPOINT is required for Redis cache type")
		}
	case "memory":
	default:
		return errors.New("CACHE_TYPE must be 'redis' or 'memory'")
	}

	if c.ListenerWorkerPoolSize <= 0 || c.ListenerWorkerPoolSize > 10 {
		return errors.New("LISTENER_WORKER_POOL_SIZE must be between 1 and 10")
	}

	switch c.ListenerDeletionPolicy {
	case "always", "on-success", "never":
	default:
		return errors.New("LISTENER_DELETION_POLICY must be 'always', 'on-success' or 'never'")
	}

	if c.LeaderElectionEnabled && c.PodName == "" {
		return errors.New("POD_NAME is required when leader election is enabled")
	}

	if c.TemplateJSONDestination == "" || c.TemplateStreamDestination == "" {
		return errors.New("template destinations must not be empty")
	}

	return nil
}

// normalize converts int values to duration and sets derived fields.
func (c *Config) normalize() {
	c.QueueAwsSqsWaitTimeDuration = time.Duration(c.QueueAwsSqsWaitTimeSeconds) * time.Second
	c.CacheDestinationTTLDuration = time.Duration(c.CacheDestinationTTLSeconds) * time.Second
	c.ListenerPollingDuration = time.Duration(c.ListenerPollingInterval) * time.Second
	c.ListenerDeduplicationDuration = time.Duration(c.ListenerDeduplicationSeconds) * time.Second
	if c.ResourceIDMappings == nil {
		c.ResourceIDMappings = map[string]string{}
	}
}
