package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/frontdesk/internal/shared"
)

// APIError is a failed record-store call.
//
// Kind is one of [shared.ErrNetworkFailure], [shared.ErrServerError],
// [shared.ErrNotFound], [shared.ErrMalformedResponse] or
// [shared.ErrValidationFailure], so callers can use [errors.Is].
type APIError struct {
	Kind    error
	Status  int
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprint(e.Kind)
	}
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short label for metrics.
func (e *APIError) KindName() string {
	switch {
	case errors.Is(e.Kind, shared.ErrNetworkFailure):
		return "network"
	case errors.Is(e.Kind, shared.ErrNotFound):
		return "not_found"
	case errors.Is(e.Kind, shared.ErrMalformedResponse):
		return "malformed"
	case errors.Is(e.Kind, shared.ErrValidationFailure):
		return "validation"
	default:
		return "server"
	}
}

// AsAPIError extracts an [APIError] from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// errorBody is the shape of record-store error payloads.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// statusError maps a non-2xx response to an [APIError].
//
// An unparseable body is treated as an empty payload and leaves Message empty.
func statusError(resp *APIResponse) *APIError {
	var body errorBody
	_ = json.Unmarshal(resp.Body, &body)

	msg := body.Error
	if msg == "" {
		msg = body.Message
	}

	apiErr := &APIError{Kind: shared.ErrServerError, Status: resp.StatusCode, Message: msg, Fields: body.Errors}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Kind = shared.ErrNotFound
	case len(body.Errors) > 0:
		apiErr.Kind = shared.ErrValidationFailure
	}
	return apiErr
}

func networkError(err error) *APIError {
	return &APIError{Kind: shared.ErrNetworkFailure, Err: err}
}

func malformedError(err error) *APIError {
	return &APIError{Kind: shared.ErrMalformedResponse, Err: err}
}
