// Package transport defines the contract all Core transports fulfill,
// enabling the connector's correlator, event router, heartbeat monitor and
// reconnection manager to stay transport-agnostic.
//
// Three implementations exist as subpackages:
//
//   - bridge: in-process calls against a host-runtime bridge object. Route
//     envelopes are executed directly via Invoke and answered with a
//     synthesized response frame carrying the envelope id, so the
//     connector-side correlation works identically to the socket path.
//
//   - legacy: the legacy inter-process invoke channel. Availability is
//     probed with "core:is-connected" at open time; all envelopes ride the
//     "core:request" channel.
//
//   - socket: a framed connection to a remote Core, either newline-delimited
//     JSON over TCP or one serialized message per WebSocket frame.
//
// Key Components:
//
//   - ITransport: open/close/send lifecycle plus inbound frame delivery.
//
//   - MessageHandler / CloseHandler: callbacks for inbound frames and for
//     unexpected connection loss. An explicit Close never triggers the
//     CloseHandler.
package transport
