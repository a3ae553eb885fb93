package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")

	// ErrReadFailure means the source file or its text could not be read.
	ErrReadFailure = errors.New("read failure")
	// ErrUnsupportedFormat means the file type has no text extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDuplicate means an invoice with the same content hash is already stored.
	ErrDuplicate = errors.New("duplicate content hash")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ReadFailure wraps err so that errors.Is(err, ErrReadFailure) holds.
func ReadFailure(path string, err error) error {
	return NewAppError("READ_FAILURE", path, errors.Join(ErrReadFailure, err))
}

// UnsupportedFormat reports a file whose extension has no extractor.
func UnsupportedFormat(path, ext string) error {
	return NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("%s: extension %q", path, ext), ErrUnsupportedFormat)
}

// gRPC status helpers for the server layer.

func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InternalErrorf(format string, args ...any) error {
	return status.Errorf(codes.Internal, format, args...)
}

// StatusFromError maps the sentinels above to gRPC codes; anything unknown
// becomes Internal.
func StatusFromError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrDuplicate):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
