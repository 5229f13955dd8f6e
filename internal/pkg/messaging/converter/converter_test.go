package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-sqs-messaging-template/internal/pkg/messaging/message"
)

type order struct {
	ID       string
	Quantity int
	Tags     []string
}

func TestJSON_RoundTrip(t *testing.T) {
	msg, err := JSON{}.ToMessage(order{ID: "o-1", Quantity: 2}, message.Headers{"tenant": "acme"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"o-1","Quantity":2,"Tags":null}`, msg.Payload)
	assert.Equal(t, ContentTypeJSON, msg.Headers.ContentType())
	assert.Equal(t, "acme", msg.Headers["tenant"])

	var got order
	require.NoError(t, JSON{}.FromMessage(msg, &got))
	assert.Equal(t, order{ID: "o-1", Quantity: 2}, got)
}

func TestJSON_ContentTypeMatching(t *testing.T) {
	var got map[string]any

	noType := &message.Message{Payload: `{"a":1}`, Headers: message.Headers{}}
	require.NoError(t, JSON{}.FromMessage(noType, &got))

	vendor := &message.Message{Payload: `{"a":1}`, Headers: message.Headers{message.HeaderContentType: "application/vnd.acme+json; charset=utf-8"}}
	require.NoError(t, JSON{}.FromMessage(vendor, &got))

	gob := &message.Message{Payload: `{"a":1}`, Headers: message.Headers{message.HeaderContentType: ContentTypeObject}}
	require.ErrorIs(t, JSON{}.FromMessage(gob, &got), ErrUnsupported)
}

func TestJSON_Errors(t *testing.T) {
	_, err := JSON{}.ToMessage(make(chan int), nil)
	require.ErrorIs(t, err, ErrConversion)

	msg := &message.Message{Payload: `not json`, Headers: message.Headers{}}
	var got order
	require.ErrorIs(t, JSON{}.FromMessage(msg, &got), ErrConversion)
	require.ErrorIs(t, JSON{}.FromMessage(msg, got), ErrUnsupported)
}

func TestString(t *testing.T) {
	msg, err := String{}.ToMessage("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Payload)
	assert.Equal(t, ContentTypeText, msg.Headers.ContentType())

	msg, err = String{}.ToMessage([]byte("bytes"), message.Headers{message.HeaderContentType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "bytes", msg.Payload)
	assert.Equal(t, "text/csv", msg.Headers.ContentType())

	_, err = String{}.ToMessage(42, nil)
	require.ErrorIs(t, err, ErrUnsupported)

	var s string
	require.NoError(t, String{}.FromMessage(&message.Message{Payload: `{"a":1}`, Headers: message.Headers{message.HeaderContentType: ContentTypeJSON}}, &s))
	assert.Equal(t, `{"a":1}`, s)

	var b []byte
	require.NoError(t, String{}.FromMessage(&message.Message{Payload: "raw"}, &b))
	assert.Equal(t, []byte("raw"), b)

	var o order
	require.ErrorIs(t, String{}.FromMessage(&message.Message{Payload: "raw"}, &o), ErrUnsupported)
}

func TestObject_RoundTrip(t *testing.T) {
	in := order{ID: "o-2", Quantity: 5, Tags: []string{"stream"}}
	msg, err := Object{}.ToMessage(in, nil)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeObject, msg.Headers.ContentType())
	assert.NotContains(t, msg.Payload, "o-2", "payload must be base64 encoded")

	var got order
	require.NoError(t, Object{}.FromMessage(msg, &got))
	assert.Equal(t, in, got)
}

func TestObject_Errors(t *testing.T) {
	_, err := Object{}.ToMessage(nil, nil)
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Object{}.ToMessage(struct{ hidden int }{1}, nil)
	require.ErrorIs(t, err, ErrConversion)

	var got order
	bad := &message.Message{Payload: "%%%", Headers: message.Headers{message.HeaderContentType: ContentTypeObject}}
	require.ErrorIs(t, Object{}.FromMessage(bad, &got), ErrConversion)

	jsonMsg := &message.Message{Payload: `{}`, Headers: message.Headers{message.HeaderContentType: ContentTypeJSON}}
	require.ErrorIs(t, Object{}.FromMessage(jsonMsg, &got), ErrUnsupported)
}

func TestDefault_PicksConverterByPayload(t *testing.T) {
	conv := Default()

	msg, err := conv.ToMessage("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", msg.Payload)
	assert.Equal(t, ContentTypeText, msg.Headers.ContentType())

	msg, err = conv.ToMessage(order{ID: "o-3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, msg.Headers.ContentType())

	var s string
	require.NoError(t, conv.FromMessage(msg, &s))
	assert.Equal(t, msg.Payload, s)

	var o order
	require.NoError(t, conv.FromMessage(msg, &o))
	assert.Equal(t, "o-3", o.ID)
}

func TestComposite_NothingSupports(t *testing.T) {
	conv := NewComposite(String{})

	_, err := conv.ToMessage(1, nil)
	require.ErrorIs(t, err, ErrUnsupported)

	var o order
	require.ErrorIs(t, conv.FromMessage(&message.Message{Payload: "x"}, &o), ErrUnsupported)
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Converter{
		"":          Default(),
		NameDefault: Default(),
		NameJSON:    JSON{},
		NameString:  String{},
		NameObject:  Object{},
	} {
		got, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ByName("xml")
	require.Error(t, err)
}
