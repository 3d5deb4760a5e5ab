package replication

import (
	"errors"
	"fmt"
)

// DecodeErrorCode categorizes malformed payloads.
type DecodeErrorCode string

const (
	// ErrCodeTruncated indicates a field ended before its declared length.
	ErrCodeTruncated DecodeErrorCode = "TRUNCATED"

	// ErrCodeWireType indicates a known field carried an unexpected wire type.
	ErrCodeWireType DecodeErrorCode = "WIRE_TYPE"

	// ErrCodeNoValue indicates a message without a value variant.
	ErrCodeNoValue DecodeErrorCode = "NO_VALUE"

	// ErrCodeNoEventType indicates a message without an event type tag.
	ErrCodeNoEventType DecodeErrorCode = "NO_EVENT_TYPE"
)

// DecodeError reports a replication payload that could not be decoded.
type DecodeError struct {
	Code DecodeErrorCode
	// Field is the protobuf field number involved, 0 if none.
	Field int32
	Err   error
}

func (e *DecodeError) Error() string {
	msg := string(e.Code)
	if e.Field != 0 {
		msg = fmt.Sprintf("%s (field %d)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "decode replication message: " + msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a DecodeError.
// Uses errors.As to handle wrapped errors.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
