// Package socket implements the transport to a remote Core over a framed
// connection. Two framings are supported, selected by the URL scheme:
//
//   - "tcp://host:port" — newline-delimited frames over a TCP connection,
//     one serialized message per line. Requires the JSON serializer since
//     the framing depends on a self-delimiting text encoding.
//
//   - "ws://" / "wss://" — one serialized message per WebSocket frame
//     (gorilla/websocket). Frames are length-delimited, so both the JSON
//     and the GOB serializer are valid.
//
// A reader goroutine decodes inbound frames and hands them to the
// registered MessageHandler; read failures after an explicit Close are
// swallowed, any other connection loss is reported once through the
// CloseHandler so the connector can drive reconnection. This is the only
// transport that requires heartbeats.
package socket
