package message

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"aws-sqs-messaging-template/internal/pkg/logger"
)

// MaxAttributes is the SQS limit of message attributes per message.
const MaxAttributes = 10

// MaxDelaySeconds is the SQS limit for per-message delay.
const MaxDelaySeconds = 900

const (
	dataTypeString = "String"
	dataTypeNumber = "Number"
	dataTypeBinary = "Binary"
)

var (
	ErrTooManyAttributes = fmt.Errorf("message has more than %d attributes", MaxAttributes)
	ErrInvalidDelay      = fmt.Errorf("delay must be between 0 and %d seconds", MaxDelaySeconds)
)

// reserved headers are carried in dedicated SQS fields or set on receipt.
var reserved = func() map[string]struct{} {
	m := map[string]struct{}{
		HeaderID:                {},
		HeaderTimestamp:         {},
		HeaderDelay:             {},
		HeaderGroupID:           {},
		HeaderDeduplicationID:   {},
		HeaderMessageID:         {},
		HeaderReceiptHandle:     {},
		HeaderLogicalResourceID: {},
	}
	for _, name := range types.MessageSystemAttributeName("").Values() {
		m[string(name)] = struct{}{}
	}
	return m
}()

// IsReserved reports whether the header is not mapped to a message attribute.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// ToAttributes maps headers to SQS message attributes. Reserved headers are
// skipped, as are values of unsupported types.
func ToAttributes(headers Headers) (map[string]types.MessageAttributeValue, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(headers))
	for name, value := range headers {
		if IsReserved(name) || value == nil {
			continue
		}
		attr, ok := toAttribute(value)
		if !ok {
			logger.Warn("skipping header %s: unsupported type %T", name, value)
			continue
		}
		attrs[name] = attr
	}
	if len(attrs) > MaxAttributes {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAttributes, len(attrs))
	}
	return attrs, nil
}

func toAttribute(value any) (types.MessageAttributeValue, bool) {
	switch v := value.(type) {
	case string:
		return types.MessageAttributeValue{DataType: aws.String(dataTypeString), StringValue: aws.String(v)}, true
	case []byte:
		return types.MessageAttributeValue{DataType: aws.String(dataTypeBinary), BinaryValue: v}, true
	case bool:
		return types.MessageAttributeValue{DataType: aws.String(dataTypeString), StringValue: aws.String(strconv.FormatBool(v))}, true
	}

	rv := reflect.ValueOf(value)
	var s string
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s = strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	default:
		return types.MessageAttributeValue{}, false
	}
	return types.MessageAttributeValue{
		DataType:    aws.String(dataTypeNumber + "." + rv.Type().String()),
		StringValue: aws.String(s),
	}, true
}

// FromAttribute decodes an SQS message attribute into a header value.
func FromAttribute(attr types.MessageAttributeValue) (any, error) {
	dataType := aws.ToString(attr.DataType)
	base, subtype, _ := strings.Cut(dataType, ".")
	switch base {
	case dataTypeString:
		return aws.ToString(attr.StringValue), nil
	case dataTypeBinary:
		return attr.BinaryValue, nil
	case dataTypeNumber:
		return parseNumber(subtype, aws.ToString(attr.StringValue))
	default:
		return nil, fmt.Errorf("unsupported attribute data type %q", dataType)
	}
}

func parseNumber(subtype, s string) (any, error) {
	switch subtype {
	case "int":
		v, err := strconv.ParseInt(s, 10, 0)
		return int(v), err
	case "int8":
		v, err := strconv.ParseInt(s, 10, 8)
		return int8(v), err
	case "int16":
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	case "int32":
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case "int64":
		return strconv.ParseInt(s, 10, 64)
	case "uint":
		v, err := strconv.ParseUint(s, 10, 0)
		return uint(v), err
	case "uint8":
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	case "uint16":
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	case "uint32":
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	case "uint64":
		return strconv.ParseUint(s, 10, 64)
	case "float32":
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case "float64":
		return strconv.ParseFloat(s, 64)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(s, 64)
}

// DelaySeconds reads the delay header. Integers and numeric strings are accepted.
func DelaySeconds(headers Headers) (int32, error) {
	value, ok := headers[HeaderDelay]
	if !ok || value == nil {
		return 0, nil
	}

	var delay int64
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return 0, errors.Join(ErrInvalidDelay, err)
		}
		delay = n
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			delay = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			delay = int64(rv.Uint())
		default:
			return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidDelay, value)
		}
	}

	if delay < 0 || delay > MaxDelaySeconds {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDelay, delay)
	}
	return int32(delay), nil
}

// FromSQS maps a received SQS message to a Message. logicalDestination is the
// destination name the caller received from. The id header is the queue's
// message id, so every receive of the same message carries the same id.
func FromSQS(m types.Message, logicalDestination string) *Message {
	headers := make(Headers, len(m.Attributes)+len(m.MessageAttributes)+3)
	for name, value := range m.Attributes {
		headers[name] = value
	}
	for name, attr := range m.MessageAttributes {
		value, err := FromAttribute(attr)
		if err != nil {
			logger.Warn("skipping attribute %s of message %s: %v", name, aws.ToString(m.MessageId), err)
			continue
		}
		headers[name] = value
	}
	headers[HeaderMessageID] = aws.ToString(m.MessageId)
	headers[HeaderReceiptHandle] = aws.ToString(m.ReceiptHandle)
	headers[HeaderLogicalResourceID] = logicalDestination
	msg := New(aws.ToString(m.Body), headers)
	if id := aws.ToString(m.MessageId); id != "" {
		msg.Headers[HeaderID] = id
	}
	return msg
}
