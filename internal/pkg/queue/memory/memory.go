package memoryQueue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"aws-sqs-messaging-template/internal/pkg/queue"
)

// URLPrefix prefixes the urls of in-memory queues.
const URLPrefix = "memory://"

type inflight struct {
	msg       types.Message
	visibleAt time.Time
}

type memQueue struct {
	ready    []types.Message
	delayed  []inflight
	inflight map[string]inflight
}

// Queues is an in-process queue.Client. Received messages stay invisible for
// VisibilityTimeout and return to the queue unless deleted.
type Queues struct {
	VisibilityTimeout time.Duration

	mu     sync.Mutex
	queues map[string]*memQueue
	now    func() time.Time
}

var _ queue.Client = (*Queues)(nil)

// New creates an empty set of in-memory queues.
func New(visibilityTimeout time.Duration) *Queues {
	return &Queues{
		VisibilityTimeout: visibilityTimeout,
		queues:            map[string]*memQueue{},
		now:               time.Now,
	}
}

func (q *Queues) GetQueueURL(_ context.Context, name string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	url := URLPrefix + name
	if _, ok := q.queues[url]; !ok {
		return "", fmt.Errorf("get queue url %s: %w", name, queue.ErrQueueNotFound)
	}
	return url, nil
}

func (q *Queues) CreateQueue(_ context.Context, name string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	url := URLPrefix + name
	if _, ok := q.queues[url]; !ok {
		q.queues[url] = &memQueue{inflight: map[string]inflight{}}
	}
	return url, nil
}

func (q *Queues) lookup(queueURL string) (*memQueue, error) {
	mq, ok := q.queues[queueURL]
	if !ok {
		return nil, fmt.Errorf("%s: %w", queueURL, queue.ErrQueueNotFound)
	}
	return mq, nil
}

func (q *Queues) SendMessage(_ context.Context, queueURL string, msg queue.OutboundMessage) (string, error) {
	if err := queue.CheckFifo(queueURL, msg); err != nil {
		return "", err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	mq, err := q.lookup(queueURL)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := q.now()
	attributes := map[string]string{
		string(types.MessageSystemAttributeNameSentTimestamp):          strconv.FormatInt(now.UnixMilli(), 10),
		string(types.MessageSystemAttributeNameApproximateReceiveCount): "0",
	}
	if msg.GroupID != "" {
		attributes[string(types.MessageSystemAttributeNameMessageGroupId)] = msg.GroupID
	}
	m := types.Message{
		MessageId:         aws.String(id),
		Body:              aws.String(msg.Body),
		Attributes:        attributes,
		MessageAttributes: msg.MessageAttributes,
	}
	if msg.DelaySeconds > 0 {
		mq.delayed = append(mq.delayed, inflight{msg: m, visibleAt: now.Add(time.Duration(msg.DelaySeconds) * time.Second)})
	} else {
		mq.ready = append(mq.ready, m)
	}
	return id, nil
}

// release returns due delayed messages and expired in-flight messages to the queue.
func (q *Queues) release(mq *memQueue) {
	now := q.now()
	kept := mq.delayed[:0]
	for _, d := range mq.delayed {
		if now.Before(d.visibleAt) {
			kept = append(kept, d)
			continue
		}
		mq.ready = append(mq.ready, d.msg)
	}
	mq.delayed = kept

	for handle, f := range mq.inflight {
		if now.Before(f.visibleAt) {
			continue
		}
		delete(mq.inflight, handle)
		f.msg.ReceiptHandle = nil
		mq.ready = append(mq.ready, f.msg)
	}
}

func (q *Queues) GetMessages(_ context.Context, queueURL string, maxMessages int32) ([]types.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	mq, err := q.lookup(queueURL)
	if err != nil {
		return nil, err
	}
	q.release(mq)

	n := min(int(maxMessages), len(mq.ready))
	if n <= 0 {
		return nil, nil
	}

	messages := make([]types.Message, 0, n)
	for _, m := range mq.ready[:n] {
		count, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		m.Attributes = cloneAttributes(m.Attributes)
		m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)] = strconv.Itoa(count + 1)
		m.ReceiptHandle = aws.String(uuid.NewString())
		mq.inflight[*m.ReceiptHandle] = inflight{msg: m, visibleAt: q.now().Add(q.VisibilityTimeout)}
		messages = append(messages, m)
	}
	mq.ready = mq.ready[n:]
	return messages, nil
}

func (q *Queues) DeleteMessage(_ context.Context, queueURL string, msg types.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	mq, err := q.lookup(queueURL)
	if err != nil {
		return err
	}
	handle := aws.ToString(msg.ReceiptHandle)
	if _, ok := mq.inflight[handle]; !ok {
		return fmt.Errorf("receipt handle %q is not in flight", handle)
	}
	delete(mq.inflight, handle)
	return nil
}

// Depth reports the number of visible and in-flight messages of a queue.
func (q *Queues) Depth(queueURL string) (visible int, inFlight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	mq, ok := q.queues[queueURL]
	if !ok {
		return 0, 0
	}
	return len(mq.ready), len(mq.inflight)
}

// Name returns the queue name of an in-memory queue url.
func Name(queueURL string) string {
	return strings.TrimPrefix(queueURL, URLPrefix)
}

func cloneAttributes(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
