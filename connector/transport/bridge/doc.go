// Package bridge implements the in-process transport against a
// host-runtime bridge object (common.Bridge). Calls cross no process
// boundary: a Route envelope is executed directly via Invoke on a separate
// goroutine and answered with a synthesized response frame carrying the
// envelope id. Invoke errors are normalized into failure responses
// ({success: false, error: message}) instead of being raised.
//
// Event subscriptions delegate to the bridge's own On API when the bridge
// implements common.BridgeEvents; the returned unsubscribe functions are
// retained per event type and released on Unsubscribe envelopes or on
// Close. A bridge without an event API rejects Subscribe envelopes with a
// ConnectionError.
//
// The bridge is synchronously available, so Open never performs I/O, Close
// only releases subscriptions, and no heartbeats are required.
package bridge
