package ingest

import (
	"errors"
	"fmt"
)

// Machine codes carried by upload-level failures.
const (
	CodeUnsupportedFile   = "UNSUPPORTED_FILE_TYPE"
	CodeEmptyFile         = "EMPTY_FILE"
	CodeHeaderNotFound    = "HEADER_NOT_FOUND"
	CodeInvalidDate       = "INVALID_DATE"
	CodeTransactionFailed = "TRANSACTION_FAILED"
)

// ErrHeaderNotFound is returned when the productivity header does not appear
// within the scan window.
var ErrHeaderNotFound = errors.New("header not found")

// Error is an upload-level failure: the whole file is rejected.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted message.
func Errorf(code string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the machine code of err, or "" when err is not an *Error.
func CodeOf(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
