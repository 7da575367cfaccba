package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the failure classes of a harvest or extraction run
type ErrorType string

const (
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeDownload   ErrorType = "download"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// Error is the error value returned by every pipeline component.
// Code carries the HTTP status when one was received, zero otherwise.
type Error struct {
	Type    ErrorType
	Op      string
	Path    string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Path)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type, so callers can
// match with errors.Is(err, &Error{Type: ErrorTypeDownload}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// New creates an error of the given type
func New(t ErrorType, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Wrap creates an error of the given type around a cause
func Wrap(t ErrorType, op string, err error) *Error {
	return &Error{Type: t, Op: op, Err: err}
}

// API builds an ApiError for a failed or malformed search call
func API(op string, code int, message string, err error) *Error {
	return &Error{Type: ErrorTypeAPI, Op: op, Code: code, Message: message, Err: err}
}

// Download builds a DownloadError for one URL
func Download(url string, code int, err error) *Error {
	return &Error{Type: ErrorTypeDownload, Op: "download", Path: url, Code: code, Err: err}
}

// Extraction builds an ExtractionError for one image
func Extraction(path, message string, err error) *Error {
	return &Error{Type: ErrorTypeExtraction, Op: "extract", Path: path, Message: message, Err: err}
}

// Validation builds a ValidationError naming the offending path or field
func Validation(path, message string) *Error {
	return &Error{Type: ErrorTypeValidation, Op: "validate", Path: path, Message: message}
}

// NotFound builds a NotFoundError
func NotFound(path, message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Op: "lookup", Path: path, Message: message}
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of the first *Error in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}
