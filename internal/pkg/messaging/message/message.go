// Package message holds the payload-plus-headers model exchanged by the
// messaging template and its converters, and its mapping to SQS messages.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Well-known header names.
const (
	HeaderID                = "id"
	HeaderTimestamp         = "timestamp"
	HeaderContentType       = "contentType"
	HeaderDelay             = "delay"
	HeaderGroupID           = "message-group-id"
	HeaderDeduplicationID   = "message-deduplication-id"
	HeaderMessageID         = "MessageId"
	HeaderReceiptHandle     = "ReceiptHandle"
	HeaderLogicalResourceID = "LogicalResourceId"
)

// Headers are message metadata. Values are strings, numbers, bools or []byte.
type Headers map[string]any

// Clone returns a shallow copy of h, never nil.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h)+2)
	for k, v := range h {
		out[k] = v
	}
	return out
}

// String returns the header value when it is a string.
func (h Headers) String(key string) (string, bool) {
	v, ok := h[key].(string)
	return v, ok
}

// ContentType returns the contentType header or "".
func (h Headers) ContentType() string {
	v, _ := h.String(HeaderContentType)
	return v
}

// Message is a serialized payload with its headers.
type Message struct {
	Payload string
	Headers Headers
}

// New copies headers and stamps a fresh id and timestamp.
func New(payload string, headers Headers) *Message {
	h := headers.Clone()
	h[HeaderID] = uuid.NewString()
	h[HeaderTimestamp] = time.Now().UnixMilli()
	return &Message{Payload: payload, Headers: h}
}
