package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/assetflow/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = common.ErrorUnauthorized
	ErrNotFound     = common.ErrorNotFound
	ErrBadRequest   = common.ErrorValidation

	// ErrMissingUser is returned when an auth response has no user object.
	ErrMissingUser = errors.New("no user data in response")
	// ErrDecode is returned when a successful response body is not valid JSON
	// of the expected shape.
	ErrDecode = errors.New("malformed response")
)

// APIError is a non-2xx response. Message is the server's "error" or
// "message" field, or the status text when the body carried neither.
type APIError struct {
	Status  int
	Message string
	Body    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return ErrBadRequest
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}

// Message extracts a user-facing message from err: the server's message for
// an *APIError, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
