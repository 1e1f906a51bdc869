package apierr

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound      = "not_found"
	CodeValidation    = "validation"
	CodeRemoteService = "remote_service"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(what string) *Error {
	return &Error{Status: 404, Code: CodeNotFound, Err: fmt.Errorf("%s not found", what)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Status: 400, Code: CodeValidation, Err: fmt.Errorf(format, args...)}
}

// RemoteService wraps a transcription or generation provider failure.
func RemoteService(provider string, err error) *Error {
	return &Error{Status: 502, Code: CodeRemoteService, Err: fmt.Errorf("%s: %w", provider, err)}
}

func IsNotFound(err error) bool      { return hasCode(err, CodeNotFound) }
func IsValidation(err error) bool    { return hasCode(err, CodeValidation) }
func IsRemoteService(err error) bool { return hasCode(err, CodeRemoteService) }

func hasCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
