package app

import "fmt"

// ValidationError rejects an operation locally, before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotReadyError rejects a query while the index is not in the indexed state.
type NotReadyError struct {
	Status IndexStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("index not ready (status %s)", e.Status)
}

// TransportError covers network failures, non-2xx responses, and malformed
// response bodies. StatusCode is zero when the request never reached the
// server. Detail is the user-facing message, already resolved through the
// detail/message/status-text precedence chain.
type TransportError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Request failed"
}

func (e *TransportError) Unwrap() error { return e.Err }
