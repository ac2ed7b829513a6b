// Package legacy implements the transport over the legacy inter-process
// invoke channel (common.LegacyInvokeFunc). It uses exactly two channel
// names: "core:is-connected" to probe reachability at open time and
// "core:request" to carry every envelope.
//
// A Route envelope is sent through "core:request" on a separate goroutine;
// the channel's {success, data, error} result is mapped into a synthesized
// response frame carrying the envelope id. Control and publish envelopes
// ride the same channel fire-and-forget, with failures logged only.
//
// The channel is call-based like the bridge, so no heartbeats are required
// and the transport cannot close unexpectedly.
package legacy
