package transport

import (
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// MessageHandler is called by a transport for every inbound frame it
// surfaces (responses and event pushes). Frames are delivered in the order
// the transport receives them.
type MessageHandler func(in *common.Inbound)

// CloseHandler is called when the transport closes without Close having
// been called. It must never be called after an explicit Close.
type CloseHandler func(err error)

// ITransport is the interface for all Core transports
type ITransport interface {
	// GetName returns the name of the transport type (e.g. "bridge", "socket")
	GetName() string

	// Open establishes the transport. For the bridge this is a synchronous
	// availability check, for the legacy channel a connectivity probe, for
	// sockets the actual dial.
	Open() error

	// Close tears down the transport and suppresses the CloseHandler
	Close() error

	// Send writes an envelope to the Core
	Send(env *common.Envelope) error

	// Handle registers the inbound frame handler (set before Open)
	Handle(handler MessageHandler)

	// HandleClose registers the unexpected-close handler (set before Open)
	HandleClose(handler CloseHandler)

	// RequiresHeartbeat reports whether the connector must send periodic
	// keep-alives over this transport
	RequiresHeartbeat() bool
}
