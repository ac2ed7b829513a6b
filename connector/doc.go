// Package connector mediates all communication between the client SDK and
// the external Core process. It binds exactly one transport per instance
// (in-process bridge, legacy IPC channel, or socket) and layers the
// connection state machine, request correlation, heartbeat monitoring,
// reconnection and event routing on top of the transport contract.
//
// Usage:
//
//	c, err := connector.New(common.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	if err := c.Connect(); err != nil {
//		return err
//	}
//	defer c.Disconnect()
//
//	resp, err := c.Request(connector.Request{
//		Service: "file",
//		Method:  "read",
//		Payload: map[string]string{"path": "/a"},
//	})
//
// Delivery guarantees: every routed request settles exactly once, either
// with the response matching its correlation id, with a TimeoutError, or
// with a ConnectionError when the connection is lost or closed while the
// request is outstanding. Events are dispatched in arrival order to
// exact-match handlers first and wildcard ("*") handlers second; a
// panicking handler never interrupts delivery to the remaining handlers.
package connector
