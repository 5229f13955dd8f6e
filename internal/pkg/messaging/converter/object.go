package converter

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"

	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

// ContentTypeObject is the content type set by Object.
const ContentTypeObject = "application/x-gob"

// Object serializes Go values with encoding/gob and Base64 encodes the bytes
// so they fit a text message body. Interface-typed fields need gob.Register.
type Object struct{}

func (Object) ToMessage(payload any, headers message.Headers) (*message.Message, error) {
	if payload == nil {
		return nil, ErrUnsupported
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("gob encode %T: %w", payload, errors.Join(ErrConversion, err))
	}
	return newMessage(base64.StdEncoding.EncodeToString(buf.Bytes()), headers, ContentTypeObject), nil
}

func (Object) FromMessage(msg *message.Message, target any) error {
	if !isPointer(target) || !contentTypeMatches(msg, ContentTypeObject) {
		return ErrUnsupported
	}
	data, err := base64.StdEncoding.DecodeString(msg.Payload)
	if err != nil {
		return fmt.Errorf("base64 decode: %w", errors.Join(ErrConversion, err))
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(target); err != nil {
		return fmt.Errorf("gob decode into %T: %w", target, errors.Join(ErrConversion, err))
	}
	return nil
}
