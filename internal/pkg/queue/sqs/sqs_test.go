package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aws-sqs-messaging-template/internal/pkg/queue"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetQueueUrl(ctx context.Context, in *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.GetQueueUrlOutput)
	return out, args.Error(1)
}

func (m *mockAPI) CreateQueue(ctx context.Context, in *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.CreateQueueOutput)
	return out, args.Error(1)
}

func (m *mockAPI) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func (m *mockAPI) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.ReceiveMessageOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.DeleteMessageOutput)
	return out, args.Error(1)
}

const jsonQueueURL = "https://sqs.eu-west-1.amazonaws.com/000000000000/JsonQueue"

func newActions(api *mockAPI) *SqsActions {
	return &SqsActions{SqsClient: api, Config: &Config{WaitTimeSeconds: 5, VisibilityTimeout: 30}}
}

func TestGetQueueURL(t *testing.T) {
	api := &mockAPI{}
	api.On("GetQueueUrl", mock.Anything, mock.MatchedBy(func(in *sqs.GetQueueUrlInput) bool {
		return aws.ToString(in.QueueName) == "JsonQueue"
	})).Return(&sqs.GetQueueUrlOutput{QueueUrl: aws.String(jsonQueueURL)}, nil)

	url, err := newActions(api).GetQueueURL(context.Background(), "JsonQueue")
	require.NoError(t, err)
	assert.Equal(t, jsonQueueURL, url)
	api.AssertExpectations(t)
}

func TestGetQueueURL_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetQueueUrl", mock.Anything, mock.Anything).
		Return(nil, &types.QueueDoesNotExist{Message: aws.String("not found")})

	_, err := newActions(api).GetQueueURL(context.Background(), "Missing")
	require.ErrorIs(t, err, queue.ErrQueueNotFound)
}

func TestGetQueueURL_OtherError(t *testing.T) {
	api := &mockAPI{}
	api.On("GetQueueUrl", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := newActions(api).GetQueueURL(context.Background(), "JsonQueue")
	require.Error(t, err)
	assert.NotErrorIs(t, err, queue.ErrQueueNotFound)
}

func TestCreateQueue_Fifo(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateQueue", mock.Anything, mock.MatchedBy(func(in *sqs.CreateQueueInput) bool {
		return aws.ToString(in.QueueName) == "Orders.fifo" &&
			in.Attributes[string(types.QueueAttributeNameFifoQueue)] == "true"
	})).Return(&sqs.CreateQueueOutput{QueueUrl: aws.String("https://sqs.local/000000000000/Orders.fifo")}, nil)

	url, err := newActions(api).CreateQueue(context.Background(), "Orders.fifo")
	require.NoError(t, err)
	assert.Equal(t, "https://sqs.local/000000000000/Orders.fifo", url)
	api.AssertExpectations(t)
}

func TestSendMessage(t *testing.T) {
	api := &mockAPI{}
	attrs := map[string]types.MessageAttributeValue{
		"contentType": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
	}
	api.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.ToString(in.QueueUrl) == jsonQueueURL &&
			aws.ToString(in.MessageBody) == `{"value":"hello"}` &&
			in.DelaySeconds == 5 &&
			in.MessageGroupId == nil &&
			aws.ToString(in.MessageAttributes["contentType"].StringValue) == "application/json"
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil)

	id, err := newActions(api).SendMessage(context.Background(), jsonQueueURL, queue.OutboundMessage{
		Body:              `{"value":"hello"}`,
		MessageAttributes: attrs,
		DelaySeconds:      5,
		GroupID:           "ignored-for-standard-queues",
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	api.AssertExpectations(t)
}

func TestSendMessage_FifoRequiresGroup(t *testing.T) {
	api := &mockAPI{}

	_, err := newActions(api).SendMessage(context.Background(), "https://sqs.local/q/Orders.fifo", queue.OutboundMessage{Body: "x"})
	require.ErrorIs(t, err, queue.ErrMissingGroupID)
	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestSendMessage_FifoRejectsDelay(t *testing.T) {
	api := &mockAPI{}

	_, err := newActions(api).SendMessage(context.Background(), "https://sqs.local/q/Orders.fifo", queue.OutboundMessage{
		Body:         "x",
		GroupID:      "g-1",
		DelaySeconds: 10,
	})
	require.ErrorIs(t, err, queue.ErrFifoDelay)
	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestSendMessage_FifoFields(t *testing.T) {
	api := &mockAPI{}
	api.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.ToString(in.MessageGroupId) == "g-1" && aws.ToString(in.MessageDeduplicationId) == "d-1"
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-2")}, nil)

	_, err := newActions(api).SendMessage(context.Background(), "https://sqs.local/q/Orders.fifo", queue.OutboundMessage{
		Body:            "x",
		GroupID:         "g-1",
		DeduplicationID: "d-1",
	})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestGetMessages(t *testing.T) {
	api := &mockAPI{}
	api.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return in.MaxNumberOfMessages == 1 &&
			in.WaitTimeSeconds == 5 &&
			in.VisibilityTimeout == 30 &&
			len(in.MessageAttributeNames) == 1 && in.MessageAttributeNames[0] == "All"
	})).Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{{MessageId: aws.String("m-1"), Body: aws.String("hi")}}}, nil)

	msgs, err := newActions(api).GetMessages(context.Background(), jsonQueueURL, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", aws.ToString(msgs[0].Body))
}

func TestGetMessages_ClampsBatchSize(t *testing.T) {
	api := &mockAPI{}
	api.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return in.MaxNumberOfMessages == 10
	})).Return(&sqs.ReceiveMessageOutput{}, nil)

	msgs, err := newActions(api).GetMessages(context.Background(), jsonQueueURL, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	api.AssertExpectations(t)
}

func TestDeleteMessage(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "rh-1"
	})).Return(&sqs.DeleteMessageOutput{}, nil)

	err := newActions(api).DeleteMessage(context.Background(), jsonQueueURL, types.Message{ReceiptHandle: aws.String("rh-1")})
	require.NoError(t, err)
	api.AssertExpectations(t)
}
