package httpclient

import (
	goerrors "errors"
	"fmt"

	"github.com/quizfunnel/leadsync/internal/errors"
)

// Error is a non-2xx response from an external service
type Error struct {
	*errors.InternalError
	StatusCode int
	Response   []byte
}

func (e *Error) Unwrap() error {
	return e.InternalError.Unwrap()
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d", e.InternalError.Error(), e.StatusCode)
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		InternalError: errors.New(errors.ErrCodeHTTPClient, "http client error"),
		StatusCode:    statusCode,
		Response:      response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// StatusCode returns the response status carried by err, zero if none
func StatusCode(err error) int {
	if httpErr, ok := IsHTTPError(err); ok {
		return httpErr.StatusCode
	}
	return 0
}
