package apperr

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func FailedPrecondition(msg string) error {
	return New(CodeFailedPrecondition, msg)
}

func Configuration(msg string) error {
	return New(CodeConfiguration, msg)
}

// CodeOf extracts the code from err, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}
