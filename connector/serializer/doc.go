// Package serializer converts envelopes and inbound frames to and from
// their wire representation for socket transports.
//
// Two implementations are provided:
//
//   - JSON: the interoperable default. Its output contains no raw newlines,
//     so it is the only serializer valid for the newline-delimited TCP
//     framing.
//
//   - GOB: a binary encoding for Go-to-Go deployments. Only usable on
//     framings that are length-delimited (WebSocket).
//
// The serializer for a connector is selected by name via New, matching the
// Options.Serializer configuration field.
package serializer
