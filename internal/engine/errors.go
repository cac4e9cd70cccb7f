package engine

import (
	"errors"
	"fmt"
)

// DecodeError is returned by Decode for frames that cannot be applied.
type DecodeError struct {
	// Code identifies the failure category.
	Code DecodeErrorCode

	// Tag is the envelope type, when one was read.
	Tag string

	Message string

	// Err is the underlying parse or validation error, if any.
	Err error
}

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// ErrCodeMalformedJSON indicates the frame is not valid JSON.
	ErrCodeMalformedJSON DecodeErrorCode = "MALFORMED_JSON"

	// ErrCodeMissingType indicates the envelope has no type tag.
	ErrCodeMissingType DecodeErrorCode = "MISSING_TYPE"

	// ErrCodeInvalidPayload indicates a known tag with a missing or invalid
	// payload.
	ErrCodeInvalidPayload DecodeErrorCode = "INVALID_PAYLOAD"
)

func (e *DecodeError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Tag)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a JSON parse failure.
func IsMalformed(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == ErrCodeMalformedJSON
	}
	return false
}

// IsInvalidPayload reports whether err is a payload validation failure.
func IsInvalidPayload(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidPayload
	}
	return false
}
