package converter

import (
	"errors"
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"

	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

// ContentTypeJSON is the content type set by JSON.
const ContentTypeJSON = "application/json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON encodes any payload as JSON. Decoding accepts messages without a
// content type or with a JSON one.
type JSON struct{}

func (JSON) ToMessage(payload any, headers message.Headers) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json encode %T: %w", payload, errors.Join(ErrConversion, err))
	}
	return newMessage(string(data), headers, ContentTypeJSON), nil
}

func (JSON) FromMessage(msg *message.Message, target any) error {
	if !isPointer(target) || !contentTypeMatches(msg, ContentTypeJSON) {
		return ErrUnsupported
	}
	if err := json.UnmarshalFromString(msg.Payload, target); err != nil {
		return fmt.Errorf("json decode into %T: %w", target, errors.Join(ErrConversion, err))
	}
	return nil
}

func isPointer(target any) bool {
	rv := reflect.ValueOf(target)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}
