package converter

import (
	"errors"

	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

// Composite delegates to the first converter that supports the payload or target.
type Composite struct {
	Converters []Converter
}

func NewComposite(converters ...Converter) *Composite {
	return &Composite{Converters: converters}
}

func (c *Composite) ToMessage(payload any, headers message.Headers) (*message.Message, error) {
	for _, conv := range c.Converters {
		msg, err := conv.ToMessage(payload, headers)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return msg, err
	}
	return nil, ErrUnsupported
}

func (c *Composite) FromMessage(msg *message.Message, target any) error {
	for _, conv := range c.Converters {
		err := conv.FromMessage(msg, target)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return err
	}
	return ErrUnsupported
}
