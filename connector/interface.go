package connector

import (
	"encoding/json"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// WildcardEvent subscribes a handler to every event type.
const WildcardEvent = "*"

// EventHandler receives a pushed event. Wildcard handlers see the same
// signature, the event type disambiguates.
type EventHandler func(eventType string, data json.RawMessage)

// Request describes one service call routed to the Core.
type Request struct {
	// Target service and method, sent as "<service>.<method>"
	Service string
	Method  string

	// Request payload, marshalled to JSON (json.RawMessage passes through)
	Payload any

	// Per-request timeout, zero falls back to Options.Timeout
	Timeout time.Duration
}

// Response is the outcome of a routed call as reported by the Core.
// Service-level failures are carried in Error with Success false; they are
// distinct from transport failures, which surface as Go errors.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ISubscription is the handle for one registered event handler
type ISubscription interface {
	// Release unregisters the handler. Releasing the last handler of an
	// event type disables server-side delivery for it. Idempotent.
	Release() error
}

// IConnector is the public surface of the Core connector
type IConnector interface {
	// Connect binds and opens the transport. No-op when already connected,
	// fails with a ConnectionError when a connect is already in progress.
	Connect() error

	// Disconnect closes the transport, cancels reconnection and rejects
	// every outstanding request with a ConnectionError
	Disconnect() error

	// State returns the current connection state
	State() common.ConnectionState

	// ClientID returns the process-unique sender id of this instance
	ClientID() string

	// Request routes a service call to the Core and waits for the
	// correlated response or the request timeout
	Request(req Request) (*Response, error)

	// Publish sends an event to the Core
	Publish(eventType string, data any) error

	// On registers a handler for an event type ("*" for all events)
	On(eventType string, handler EventHandler) (ISubscription, error)

	// Once registers a handler that unregisters itself after the first event
	Once(eventType string, handler EventHandler) (ISubscription, error)

	// Off removes every handler registered for an event type
	Off(eventType string) error

	// Pending returns the number of outstanding requests
	Pending() int
}
