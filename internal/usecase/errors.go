package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorRoomNotFound       ErrorCode = "ROOM_NOT_FOUND"
	ErrorRoomFull           ErrorCode = "ROOM_FULL"
	ErrorUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorValidation         ErrorCode = "VALIDATION_ERROR"
	ErrorStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrorChannelUnavailable ErrorCode = "CHANNEL_UNAVAILABLE"
)

// Error is the terminal outcome of a rejected operation: either a business
// rule said no, or a collaborator failed. Nothing here is retried internally.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the error code, defaulting to STORE_UNAVAILABLE for
// anything that is not a usecase error.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorStoreUnavailable
}
