// Package messaging provides Template, a send and receive helper bound to a
// queue client, a destination resolver and a message converter.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/messaging/converter"
	"aws-sqs-messaging-template/internal/pkg/messaging/destination"
	"aws-sqs-messaging-template/internal/pkg/messaging/message"
	"aws-sqs-messaging-template/internal/pkg/observability/metrics"
	"aws-sqs-messaging-template/internal/pkg/queue"
)

// ErrNoDefaultDestination is returned by operations that rely on a default
// destination when none is configured.
var ErrNoDefaultDestination = errors.New("no default destination configured")

// Template sends and receives messages on logical destinations.
type Template struct {
	client   queue.Client
	resolver destination.Resolver

	mu                 sync.RWMutex
	converter          converter.Converter
	defaultDestination string
}

// Option configures a Template.
type Option func(*Template)

// WithDefaultDestination sets the destination used when none is given.
func WithDefaultDestination(name string) Option {
	return func(t *Template) { t.defaultDestination = name }
}

// WithConverter replaces the default message converter.
func WithConverter(c converter.Converter) Option {
	return func(t *Template) {
		if c != nil {
			t.converter = c
		}
	}
}

// NewTemplate builds a template over client. resolver maps destination names
// to queue urls.
func NewTemplate(client queue.Client, resolver destination.Resolver, opts ...Option) *Template {
	t := &Template{
		client:    client,
		resolver:  resolver,
		converter: converter.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Template) SetDefaultDestination(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defaultDestination = name
}

func (t *Template) DefaultDestination() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultDestination
}

// SetConverter replaces the message converter. A nil converter is ignored.
func (t *Template) SetConverter(c converter.Converter) {
	if c == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.converter = c
}

func (t *Template) Converter() converter.Converter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.converter
}

func (t *Template) requireDefault() (string, error) {
	name := t.DefaultDestination()
	if name == "" {
		return "", ErrNoDefaultDestination
	}
	return name, nil
}

// Send sends msg to the default destination.
func (t *Template) Send(ctx context.Context, msg *message.Message) (string, error) {
	name, err := t.requireDefault()
	if err != nil {
		return "", err
	}
	return t.SendTo(ctx, name, msg)
}

// SendTo sends msg to the named destination and returns the queue's message id.
func (t *Template) SendTo(ctx context.Context, name string, msg *message.Message) (string, error) {
	if msg == nil {
		return "", errors.New("message is nil")
	}
	out, err := toOutbound(msg)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "send").Inc()
		return "", fmt.Errorf("send to %s: %w", name, err)
	}

	queueURL, err := t.resolver.Resolve(ctx, name)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "resolve").Inc()
		return "", err
	}

	id, err := t.client.SendMessage(ctx, queueURL, out)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "send").Inc()
		return "", fmt.Errorf("send to %s: %w", name, err)
	}
	metrics.MessagesSent.WithLabelValues(name).Inc()
	logger.InfoCtx(ctx, "Sent message %s to %s", id, name)
	return id, nil
}

func toOutbound(msg *message.Message) (queue.OutboundMessage, error) {
	attrs, err := message.ToAttributes(msg.Headers)
	if err != nil {
		return queue.OutboundMessage{}, err
	}
	delay, err := message.DelaySeconds(msg.Headers)
	if err != nil {
		return queue.OutboundMessage{}, err
	}
	groupID, _ := msg.Headers.String(message.HeaderGroupID)
	dedupID, _ := msg.Headers.String(message.HeaderDeduplicationID)
	return queue.OutboundMessage{
		Body:              msg.Payload,
		MessageAttributes: attrs,
		DelaySeconds:      delay,
		GroupID:           groupID,
		DeduplicationID:   dedupID,
	}, nil
}

// ConvertAndSend converts payload with the template's converter and sends it
// to the default destination.
func (t *Template) ConvertAndSend(ctx context.Context, payload any, headers message.Headers) (string, error) {
	name, err := t.requireDefault()
	if err != nil {
		return "", err
	}
	return t.ConvertAndSendTo(ctx, name, payload, headers)
}

func (t *Template) ConvertAndSendTo(ctx context.Context, name string, payload any, headers message.Headers) (string, error) {
	msg, err := t.Converter().ToMessage(payload, headers)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "convert").Inc()
		return "", fmt.Errorf("convert payload for %s: %w", name, err)
	}
	return t.SendTo(ctx, name, msg)
}

// Receive takes one message from the default destination. It returns nil
// when the queue is empty.
func (t *Template) Receive(ctx context.Context) (*message.Message, error) {
	name, err := t.requireDefault()
	if err != nil {
		return nil, err
	}
	return t.ReceiveFrom(ctx, name)
}

// ReceiveFrom takes one message from the named destination and deletes it
// from the queue. It returns nil when the queue is empty.
func (t *Template) ReceiveFrom(ctx context.Context, name string) (*message.Message, error) {
	queueURL, err := t.resolver.Resolve(ctx, name)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "resolve").Inc()
		return nil, err
	}

	messages, err := t.client.GetMessages(ctx, queueURL, 1)
	if err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "receive").Inc()
		return nil, fmt.Errorf("receive from %s: %w", name, err)
	}
	if len(messages) == 0 {
		return nil, nil
	}

	received := messages[0]
	if err := t.client.DeleteMessage(ctx, queueURL, received); err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "delete").Inc()
		return nil, fmt.Errorf("delete message %s from %s: %w", aws.ToString(received.MessageId), name, err)
	}
	metrics.MessagesReceived.WithLabelValues(name).Inc()
	return message.FromSQS(received, name), nil
}

// ReceiveAndConvert receives from the default destination into target.
// ok is false when no message was available.
func (t *Template) ReceiveAndConvert(ctx context.Context, target any) (bool, error) {
	name, err := t.requireDefault()
	if err != nil {
		return false, err
	}
	return t.ReceiveAndConvertFrom(ctx, name, target)
}

func (t *Template) ReceiveAndConvertFrom(ctx context.Context, name string, target any) (bool, error) {
	msg, err := t.ReceiveFrom(ctx, name)
	if err != nil || msg == nil {
		return false, err
	}
	if err := t.Converter().FromMessage(msg, target); err != nil {
		metrics.MessagesFailed.WithLabelValues(name, "convert").Inc()
		return true, fmt.Errorf("convert message from %s: %w", name, err)
	}
	return true, nil
}
