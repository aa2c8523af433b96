package notify

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid notification config")

	// ErrNetworkError is returned when the endpoint could not be reached
	ErrNetworkError = errors.New("network error")

	// ErrUnexpectedStatus is returned for any non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrCircuitOpen is returned while the breaker rejects calls
	ErrCircuitOpen = errors.New("notification circuit open")
)
