package registry

import (
	"aws-sqs-messaging-template/configs"
	"aws-sqs-messaging-template/internal/pkg/messaging/converter"
)

const (
	// DefaultTemplate sends JSON and plain text with the default converter.
	DefaultTemplate = "defaultQueueMessagingTemplate"
	// CustomConverterTemplate serializes Go values with the object converter.
	CustomConverterTemplate = "queueMessagingTemplateWithCustomConverter"
)

// DefaultDefinitions returns the two templates the application registers.
func DefaultDefinitions(cfg *configs.Config) []Definition {
	return []Definition{
		{
			Name:               DefaultTemplate,
			DefaultDestination: cfg.TemplateJSONDestination,
			Converter:          converter.NameDefault,
		},
		{
			Name:               CustomConverterTemplate,
			DefaultDestination: cfg.TemplateStreamDestination,
			Converter:          converter.NameObject,
		},
	}
}
