package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying failures across the sampling stack.
// Callers should wrap these so the CLI can handle error categories
// uniformly without importing transport-specific packages.
//
//	return fmt.Errorf("invalid port %q: %w", port, domain.ErrInvalidAddress)
var (
	// ErrCommunication indicates the broker could not be reached or the
	// protocol exchange failed. It is the only retryable category.
	ErrCommunication = errors.New("broker communication failed")

	// ErrInvalidAddress indicates a malformed databroker address.
	ErrInvalidAddress = errors.New("invalid databroker address")

	// ErrMissingPath indicates no datapoint path was given.
	ErrMissingPath = errors.New("datapoint path is required")

	// ErrInvalidPath indicates a datapoint path that cannot be sent to the
	// broker (it must be valid UTF-8).
	ErrInvalidPath = errors.New("invalid datapoint path")
)

// CommError wraps a transport or protocol failure talking to the broker.
type CommError struct {
	Endpoint Endpoint
	Op       string
	Err      error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCommunication) match any *CommError.
func (e *CommError) Is(target error) bool { return target == ErrCommunication }

// BrokerError is returned when the broker answered the request but
// reported an error for the datapoint other than "not found".
type BrokerError struct {
	Path    string
	Code    uint32
	Reason  string
	Message string
}

func (e *BrokerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Reason
	}
	return fmt.Sprintf("broker rejected %s: %d %s", e.Path, e.Code, msg)
}
