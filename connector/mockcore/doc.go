// Package mockcore hosts an in-process stand-in for the desktop Core
// process. It speaks the connector's envelope protocol on TCP
// (newline-delimited frames) and WebSocket listeners and is used by the
// socket transport integration tests and by the CLI's serve command.
//
// Behaviour:
//
//   - Route envelopes are dispatched to service handlers registered under
//     their "<service>.<method>" action. Built-ins: "core.ping" answers
//     "pong", "core.echo" answers its own params. Unknown actions produce
//     a failure response.
//
//   - Subscribe/Unsubscribe envelopes maintain the per-connection event
//     subscription set. "*" subscribes a connection to every event type.
//
//   - Publish envelopes are rebroadcast as event push frames to every
//     connection subscribed to the event type.
//
//   - Heartbeat envelopes are acknowledged by doing nothing.
package mockcore
