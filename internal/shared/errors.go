package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrUnknownDriver = fmt.Errorf("unknown storage driver")

	// Record-store errors
	ErrNetworkFailure     = fmt.Errorf("network failure")
	ErrServerError        = fmt.Errorf("server error")
	ErrNotFound           = fmt.Errorf("not found")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrValidationFailure  = fmt.Errorf("validation failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Refresh protocol errors
	ErrNoOpener         = fmt.Errorf("no opener available")
	ErrForeignOrigin    = fmt.Errorf("message from foreign origin")
	ErrInvalidMessage   = fmt.Errorf("invalid message")
	ErrDuplicateMessage = fmt.Errorf("duplicate message")
	ErrClosed           = fmt.Errorf("closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
