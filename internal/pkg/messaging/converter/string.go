package converter

import (
	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

// ContentTypeText is the content type set by String.
const ContentTypeText = "text/plain;charset=UTF-8"

// String passes string and []byte payloads through unchanged.
type String struct{}

func (String) ToMessage(payload any, headers message.Headers) (*message.Message, error) {
	switch p := payload.(type) {
	case string:
		return newMessage(p, headers, ContentTypeText), nil
	case []byte:
		return newMessage(string(p), headers, ContentTypeText), nil
	default:
		return nil, ErrUnsupported
	}
}

// FromMessage copies the raw payload into a *string or *[]byte whatever the content type.
func (String) FromMessage(msg *message.Message, target any) error {
	switch t := target.(type) {
	case *string:
		*t = msg.Payload
	case *[]byte:
		*t = []byte(msg.Payload)
	default:
		return ErrUnsupported
	}
	return nil
}
