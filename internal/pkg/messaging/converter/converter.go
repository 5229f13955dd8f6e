// Package converter translates between application values and message payloads.
package converter

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

var (
	// ErrUnsupported means the converter does not handle this payload, target or content type.
	ErrUnsupported = errors.New("converter: unsupported payload or target")
	// ErrConversion wraps encoding and decoding failures.
	ErrConversion = errors.New("converter: conversion failed")
)

// Converter serializes payloads into messages and back.
type Converter interface {
	// ToMessage serializes payload into a message carrying headers.
	ToMessage(payload any, headers message.Headers) (*message.Message, error)
	// FromMessage deserializes the message payload into target, which must be a pointer.
	FromMessage(msg *message.Message, target any) error
}

// Names accepted by ByName.
const (
	NameDefault = "default"
	NameJSON    = "json"
	NameString  = "string"
	NameObject  = "object"
)

// Default is the template's default strategy: plain strings pass through,
// everything else is JSON.
func Default() *Composite {
	return NewComposite(String{}, JSON{})
}

// ByName returns the converter registered under name. An empty name selects Default.
func ByName(name string) (Converter, error) {
	switch name {
	case "", NameDefault:
		return Default(), nil
	case NameJSON:
		return JSON{}, nil
	case NameString:
		return String{}, nil
	case NameObject:
		return Object{}, nil
	default:
		return nil, fmt.Errorf("unknown message converter %q", name)
	}
}

// newMessage builds a message and sets contentType unless the caller already did.
func newMessage(payload string, headers message.Headers, contentType string) *message.Message {
	msg := message.New(payload, headers)
	if msg.Headers.ContentType() == "" {
		msg.Headers[message.HeaderContentType] = contentType
	}
	return msg
}

// contentTypeMatches accepts a missing content type, otherwise compares media
// types ignoring parameters. A "+json" style suffix matches its base subtype.
func contentTypeMatches(msg *message.Message, supported string) bool {
	ct := msg.Headers.ContentType()
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	if mediaType == supported {
		return true
	}
	_, sub, _ := strings.Cut(supported, "/")
	return strings.HasSuffix(mediaType, "+"+sub)
}
