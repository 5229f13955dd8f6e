package redisQueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/queue"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisActions provides methods to interact with Redis-backed queues.
// Each queue is a list; received messages move to "<key>:processing" until
// deleted, and delayed messages wait in the "<key>:delayed" sorted set.
// With a VisibilityTimeout, "<key>:visibility" holds the deadline of every
// received entry and expired entries are pushed back onto the queue.
type RedisActions struct {
	Client *redis.Client // Redis client
	Config *Config       // Configuration for Redis queue
}

var _ queue.Client = (*RedisActions)(nil)

type Config struct {
	KeyPrefix         string        // Prefix for queue list keys
	WaitTime          time.Duration // Blocking wait when the queue is empty, 0 returns immediately
	VisibilityTimeout time.Duration // Undeleted messages return to the queue after this, 0 keeps them in processing
}

// NewClient creates a new redis client.
func NewClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
}

func (q *RedisActions) registryKey() string { return q.Config.KeyPrefix + "queues" }

// GetQueueURL returns the list key of a queue created through CreateQueue.
func (q *RedisActions) GetQueueURL(ctx context.Context, name string) (string, error) {
	ok, err := q.Client.SIsMember(ctx, q.registryKey(), name).Result()
	if err != nil {
		return "", fmt.Errorf("get queue url %s: %w", name, err)
	}
	if !ok {
		return "", fmt.Errorf("get queue url %s: %w", name, queue.ErrQueueNotFound)
	}
	return q.Config.KeyPrefix + name, nil
}

// CreateQueue registers the queue name and returns its list key.
func (q *RedisActions) CreateQueue(ctx context.Context, name string) (string, error) {
	if err := q.Client.SAdd(ctx, q.registryKey(), name).Err(); err != nil {
		return "", fmt.Errorf("create queue %s: %w", name, err)
	}
	return q.Config.KeyPrefix + name, nil
}

// SendMessage pushes the message onto the queue list, or into the delayed set when DelaySeconds > 0.
func (q *RedisActions) SendMessage(ctx context.Context, queueURL string, msg queue.OutboundMessage) (string, error) {
	if err := queue.CheckFifo(queueURL, msg); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now()
	attributes := map[string]string{
		string(types.MessageSystemAttributeNameSentTimestamp): strconv.FormatInt(now.UnixMilli(), 10),
	}
	if msg.GroupID != "" {
		attributes[string(types.MessageSystemAttributeNameMessageGroupId)] = msg.GroupID
	}
	if msg.DeduplicationID != "" {
		attributes[string(types.MessageSystemAttributeNameMessageDeduplicationId)] = msg.DeduplicationID
	}

	data, err := json.Marshal(types.Message{
		MessageId:         aws.String(id),
		Body:              aws.String(msg.Body),
		Attributes:        attributes,
		MessageAttributes: msg.MessageAttributes,
	})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	if msg.DelaySeconds > 0 {
		due := now.Add(time.Duration(msg.DelaySeconds) * time.Second)
		err = q.Client.ZAdd(ctx, queueURL+":delayed", redis.Z{Score: float64(due.UnixMilli()), Member: data}).Err()
	} else {
		err = q.Client.LPush(ctx, queueURL, data).Err()
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// promoteDelayed moves due messages from the delayed set onto the queue list.
func (q *RedisActions) promoteDelayed(ctx context.Context, queueURL string) error {
	delayedKey := queueURL + ":delayed"
	due, err := q.Client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := q.Client.ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return err
		}
		// another consumer already promoted it
		if removed == 0 {
			continue
		}
		if err := q.Client.LPush(ctx, queueURL, member).Err(); err != nil {
			return err
		}
	}
	return nil
}

// GetMessages moves up to maxMessages messages into the processing list so that
// they are not lost if the consumer fails before DeleteMessage.
func (q *RedisActions) GetMessages(ctx context.Context, queueURL string, maxMessages int32) ([]types.Message, error) {
	if err := q.promoteDelayed(ctx, queueURL); err != nil {
		return nil, err
	}
	if err := q.requeueExpired(ctx, queueURL); err != nil {
		return nil, err
	}

	var messages []types.Message
	processingKey := queueURL + ":processing"

	for i := 0; i < int(maxMessages); i++ {
		res, err := q.Client.RPopLPush(ctx, queueURL, processingKey).Result()
		if errors.Is(err, redis.Nil) && i == 0 && q.Config.WaitTime > 0 {
			res, err = q.Client.BRPopLPush(ctx, queueURL, processingKey, q.Config.WaitTime).Result()
		}
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return messages, err
		}

		var msg types.Message
		if err := json.Unmarshal([]byte(res), &msg); err != nil {
			// drop the unreadable entry from processing and put it back
			if lremErr := q.Client.LRem(ctx, processingKey, 1, res).Err(); lremErr != nil {
				logger.ErrorCtx(ctx, "Failed to remove unreadable entry from %s: %s", processingKey, lremErr)
			}
			if pushErr := q.Client.LPush(ctx, queueURL, res).Err(); pushErr != nil {
				logger.ErrorCtx(ctx, "Failed to requeue unreadable entry on %s: %s", queueURL, pushErr)
			}
			return messages, err
		}
		if q.Config.VisibilityTimeout > 0 {
			deadline := time.Now().Add(q.Config.VisibilityTimeout)
			if err := q.Client.ZAdd(ctx, queueURL+":visibility", redis.Z{Score: float64(deadline.UnixMilli()), Member: res}).Err(); err != nil {
				logger.ErrorCtx(ctx, "Failed to track visibility of message %s: %s", aws.ToString(msg.MessageId), err)
			}
		}
		msg.ReceiptHandle = aws.String(res)
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil, nil
	}
	return messages, nil
}

// DeleteMessage removes a received message from the processing list.
func (q *RedisActions) DeleteMessage(ctx context.Context, queueURL string, msg types.Message) error {
	if msg.ReceiptHandle == nil {
		return errors.New("message has no receipt handle")
	}
	if err := q.Client.LRem(ctx, queueURL+":processing", 1, *msg.ReceiptHandle).Err(); err != nil {
		return err
	}
	if q.Config.VisibilityTimeout > 0 {
		return q.Client.ZRem(ctx, queueURL+":visibility", *msg.ReceiptHandle).Err()
	}
	return nil
}

// requeueExpired moves entries whose visibility deadline passed from the
// processing list back onto the queue.
func (q *RedisActions) requeueExpired(ctx context.Context, queueURL string) error {
	if q.Config.VisibilityTimeout <= 0 {
		return nil
	}
	visibilityKey := queueURL + ":visibility"
	expired, err := q.Client.ZRangeByScore(ctx, visibilityKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, member := range expired {
		removed, err := q.Client.ZRem(ctx, visibilityKey, member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		n, err := q.Client.LRem(ctx, queueURL+":processing", 1, member).Result()
		if err != nil {
			return err
		}
		// already deleted by its consumer
		if n == 0 {
			continue
		}
		if err := q.Client.LPush(ctx, queueURL, member).Err(); err != nil {
			return err
		}
	}
	return nil
}
