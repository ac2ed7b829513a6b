// Package common provides the core data structures and utilities shared
// across the connector subsystem: the envelope protocol used on the wire,
// the connector configuration with its defaults, the typed error taxonomy
// and the logging factory.
//
// Key Components:
//
//   - Envelope / Payload: the wire message exchanged with the Core process,
//     with factory functions for every message type (Route, Publish,
//     Subscribe, Unsubscribe, Heartbeat).
//
//   - Inbound: a frame received from the Core, either a correlated response
//     to a routed request or a server-pushed event.
//
//   - Options: connector configuration including transport selection inputs
//     (bridge object, legacy invoke function, socket URL) and the timing
//     parameters for timeouts, heartbeats and reconnection.
//
//   - ConnectionError / TimeoutError: the error types surfaced to callers.
//
//   - GetLogger: factory for named component loggers with a shared,
//     globally adjustable level.
package common
