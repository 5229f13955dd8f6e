package queue

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ErrQueueNotFound is returned when a queue name cannot be mapped to a queue.
var ErrQueueNotFound = errors.New("queue does not exist")

// ErrMissingGroupID is returned when sending to a FIFO queue without a message group id.
var ErrMissingGroupID = errors.New("message group id is required for FIFO queues")

// ErrFifoDelay is returned when a per-message delay is set on a FIFO queue.
var ErrFifoDelay = errors.New("per-message delay is not supported on FIFO queues")

// FifoSuffix marks FIFO queue names and urls.
const FifoSuffix = ".fifo"

// OutboundMessage is a message ready to be put on a queue.
type OutboundMessage struct {
	Body              string
	MessageAttributes map[string]types.MessageAttributeValue
	DelaySeconds      int32
	GroupID           string // FIFO queues only
	DeduplicationID   string // FIFO queues only
}

// Client defines the interface for a queue backend (SQS, Redis, in-memory).
type Client interface {
	// GetQueueURL maps a physical queue name to its url.
	GetQueueURL(ctx context.Context, name string) (string, error)
	// CreateQueue creates the queue if needed and returns its url.
	CreateQueue(ctx context.Context, name string) (string, error)
	// SendMessage puts a message on the queue and returns its message id.
	SendMessage(ctx context.Context, queueURL string, msg OutboundMessage) (string, error)
	// GetMessages retrieves up to maxMessages messages from the queue.
	GetMessages(ctx context.Context, queueURL string, maxMessages int32) ([]types.Message, error)
	// DeleteMessage deletes a message from the queue.
	DeleteMessage(ctx context.Context, queueURL string, msg types.Message) error
}

// IsFifo reports whether the queue name or url denotes a FIFO queue.
func IsFifo(queue string) bool {
	return strings.HasSuffix(queue, FifoSuffix)
}

// CheckFifo rejects messages a FIFO queue would refuse. Standard queues pass.
func CheckFifo(queueURL string, msg OutboundMessage) error {
	if !IsFifo(queueURL) {
		return nil
	}
	if msg.GroupID == "" {
		return ErrMissingGroupID
	}
	if msg.DelaySeconds > 0 {
		return ErrFifoDelay
	}
	return nil
}
