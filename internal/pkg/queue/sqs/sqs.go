package sqs

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/queue"
)

// API is the subset of the SQS client used by SqsActions.
type API interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SqsActions provides methods to interact with AWS SQS.
type SqsActions struct {
	SqsClient API     // AWS SQS client
	Config    *Config // Configuration for SQS
}

var _ queue.Client = (*SqsActions)(nil)

type Config struct {
	WaitTimeSeconds   int32 // Long polling wait time for receives
	VisibilityTimeout int32 // Visibility timeout applied to received messages, 0 keeps the queue default
}

// NewClient creates a new sqs client. A non-empty endpoint overrides the
// regional endpoint, e.g. for LocalStack.
func NewClient(ctx context.Context, region string, endpoint string) (*sqs.Client, error) {
	// Load the Shared AWS Configuration
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	// Create an SQS service client
	svc := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return svc, nil
}

// GetQueueURL looks up the url of a queue by name.
func (a *SqsActions) GetQueueURL(ctx context.Context, name string) (string, error) {
	result, err := a.SqsClient.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		var notExist *types.QueueDoesNotExist
		if errors.As(err, &notExist) {
			return "", fmt.Errorf("get queue url %s: %w", name, errors.Join(queue.ErrQueueNotFound, err))
		}
		return "", fmt.Errorf("get queue url %s: %w", name, err)
	}
	return aws.ToString(result.QueueUrl), nil
}

// CreateQueue creates a queue, marking it FIFO when the name carries the .fifo suffix.
func (a *SqsActions) CreateQueue(ctx context.Context, name string) (string, error) {
	input := &sqs.CreateQueueInput{QueueName: aws.String(name)}
	if queue.IsFifo(name) {
		input.Attributes = map[string]string{
			string(types.QueueAttributeNameFifoQueue): "true",
		}
	}
	result, err := a.SqsClient.CreateQueue(ctx, input)
	if err != nil {
		logger.Error("unable to create queue %s: %v", name, err)
		return "", fmt.Errorf("create queue %s: %w", name, err)
	}
	return aws.ToString(result.QueueUrl), nil
}

// SendMessage sends a message to the SQS queue.
func (a *SqsActions) SendMessage(ctx context.Context, queueURL string, msg queue.OutboundMessage) (string, error) {
	if err := queue.CheckFifo(queueURL, msg); err != nil {
		return "", err
	}
	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(msg.Body),
		MessageAttributes: msg.MessageAttributes,
		DelaySeconds:      msg.DelaySeconds,
	}
	if queue.IsFifo(queueURL) {
		input.MessageGroupId = aws.String(msg.GroupID)
		if msg.DeduplicationID != "" {
			input.MessageDeduplicationId = aws.String(msg.DeduplicationID)
		}
	}
	result, err := a.SqsClient.SendMessage(ctx, input)
	if err != nil {
		logger.Error("SQS SendMessage error: %v", err)
		return "", err
	}
	return aws.ToString(result.MessageId), nil
}

// GetMessages receives messages from the SQS queue.
func (a *SqsActions) GetMessages(ctx context.Context, queueURL string, maxMessages int32) ([]types.Message, error) {
	if maxMessages <= 0 || maxMessages > 10 {
		maxMessages = 10
	}
	result, err := a.SqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(queueURL),
		MaxNumberOfMessages:         maxMessages,
		WaitTimeSeconds:             a.Config.WaitTimeSeconds,
		VisibilityTimeout:           a.Config.VisibilityTimeout,
		MessageAttributeNames:       []string{"All"},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
	})
	if err != nil {
		logger.Error("SQS ReceiveMessage error: %v", err)
		return nil, err
	}
	return result.Messages, nil
}

// DeleteMessage deletes a message from the SQS queue.
func (a *SqsActions) DeleteMessage(ctx context.Context, queueURL string, msg types.Message) error {
	_, err := a.SqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		logger.Error("unable to delete message from queue %s: %v", queueURL, err)
	}
	return err
}
