package common

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Error taxonomy
// --------------------------------------------------------------------------

// ConnectionError indicates that the connector could not reach the Core:
// not connected, already connecting, transport unavailable, or the
// connection was lost or closed while requests were outstanding.
type ConnectionError struct {
	Reason string
}

// NewConnectionError creates a new ConnectionError with a formatted reason
func NewConnectionError(format string, args ...any) *ConnectionError {
	return &ConnectionError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s", e.Reason)
}

// TimeoutError indicates that a routed request exceeded its timeout before
// a response arrived. Service and Method are carried for diagnostics.
type TimeoutError struct {
	Service string
	Method  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s.%s timed out after %v", e.Service, e.Method, e.Timeout)
}
