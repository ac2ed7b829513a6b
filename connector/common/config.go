package common

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Transport injection points
// --------------------------------------------------------------------------

// Bridge is the in-process call surface exposed by a host runtime (e.g. a
// desktop shell embedding the SDK). Calls cross no process boundary and
// need no serialization.
type Bridge interface {
	// Invoke performs a call against the Core and returns its result
	Invoke(namespace, action string, params any) (any, error)
}

// BridgeEvents is the optional subscription surface of a Bridge. A bridge
// that does not implement it cannot deliver server-pushed events.
type BridgeEvents interface {
	// On registers a handler for an event and returns its unsubscribe function
	On(event string, handler func(data any)) (unsubscribe func())
}

// BridgeEmitter is the optional publish surface of a Bridge.
type BridgeEmitter interface {
	// Emit publishes an event into the host runtime
	Emit(event string, data any)
}

// LegacyInvokeFunc is the single entry point of the legacy inter-process
// channel. It is used with the fixed channel names "core:is-connected"
// and "core:request".
type LegacyInvokeFunc func(channel string, args ...any) (any, error)

// --------------------------------------------------------------------------
// Connector configuration struct
// --------------------------------------------------------------------------

// Default values used by Normalized for unset Options fields.
const (
	DefaultURL                  = "ws://127.0.0.1:8192"
	DefaultTimeout              = 30 * time.Second
	DefaultReconnectDelay       = 1 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultSerializer           = "json"
)

// Options holds all configuration parameters for a connector instance.
// The zero value is usable after Normalized has filled in the defaults.
type Options struct {
	// Socket endpoint of the Core ("ws://", "wss://" or "tcp://")
	URL string

	// Default timeout for a single routed request
	Timeout time.Duration

	// Reconnection behaviour on unexpected connection loss
	Reconnect            bool
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Keep-alive interval for socket transports (0 disables heartbeats)
	HeartbeatInterval time.Duration

	// Wire serializer for socket transports ("json" or "gob")
	Serializer string

	// Transport injection: if Bridge is set it is used, otherwise
	// LegacyInvoke, otherwise a socket is dialed at URL
	Bridge       Bridge
	LegacyInvoke LegacyInvokeFunc

	// Logging configuration
	LogLevel string
}

// DefaultOptions returns an Options with every field set to its default.
// Reconnection is enabled by default.
func DefaultOptions() Options {
	return Options{
		URL:                  DefaultURL,
		Timeout:              DefaultTimeout,
		Reconnect:            true,
		ReconnectDelay:       DefaultReconnectDelay,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		HeartbeatInterval:    DefaultHeartbeatInterval,
		Serializer:           DefaultSerializer,
		LogLevel:             "info",
	}
}

// Normalized returns a copy of the Options with unset fields replaced by
// their defaults. The Reconnect flag is kept as-is since false is a valid
// caller choice.
func (o Options) Normalized() Options {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if o.HeartbeatInterval < 0 {
		o.HeartbeatInterval = 0
	}
	if o.Serializer == "" {
		o.Serializer = DefaultSerializer
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	return o
}

// String returns a formatted string representation of the configuration
func (o *Options) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Transport")
	switch {
	case o.Bridge != nil:
		addField("Selected", "bridge (in-process)")
	case o.LegacyInvoke != nil:
		addField("Selected", "legacy IPC")
	default:
		addField("Selected", "socket")
		addField("URL", o.URL)
		addField("Serializer", o.Serializer)
		addField("Heartbeat Interval", o.HeartbeatInterval.String())
	}

	addSection("Requests")
	addField("Timeout", o.Timeout.String())

	addSection("Reconnection")
	addField("Enabled", fmt.Sprintf("%t", o.Reconnect))
	addField("Base Delay", o.ReconnectDelay.String())
	addField("Max Attempts", fmt.Sprintf("%d", o.MaxReconnectAttempts))

	addSection("Logging")
	addField("Log Level", o.LogLevel)

	return sb.String()
}
