package common

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Envelope Structure
// --------------------------------------------------------------------------

// Envelope is the wire message sent to the Core. On socket transports one
// serialized envelope is written per frame (one JSON object per line for
// the newline-delimited TCP framing).
type Envelope struct {
	// Unique envelope id, doubles as the correlation id for Route messages
	ID string `json:"id"`

	// Type of message
	MsgType MessageType `json:"message_type"`

	// Type-specific payload
	Payload Payload `json:"payload"`

	// Creation time, ISO-8601
	Timestamp string `json:"timestamp"`
}

// Payload carries the type-specific fields of an Envelope. Which fields are
// used depends on the type of message.
type Payload struct {
	Sender       string          `json:"sender,omitempty"`        // Used for: Route, Publish, Heartbeat
	Action       string          `json:"action,omitempty"`        // Used for: Route ("<service>.<method>")
	Params       json.RawMessage `json:"params,omitempty"`        // Used for: Route, Heartbeat
	TimeoutMS    int64           `json:"timeout_ms,omitempty"`    // Used for: Route
	EventType    string          `json:"event_type,omitempty"`    // Used for: Publish, Subscribe, Unsubscribe
	Data         json.RawMessage `json:"data,omitempty"`          // Used for: Publish
	SubscriberID string          `json:"subscriber_id,omitempty"` // Used for: Subscribe, Unsubscribe
}

// --------------------------------------------------------------------------
// Inbound Frame Structure
// --------------------------------------------------------------------------

// EventFrameType tags a server-pushed event frame.
const EventFrameType = "event"

// Inbound is a frame received from the Core: either the response to a
// routed request (matched by RequestID) or a server-pushed event (tagged
// with Type == EventFrameType).
type Inbound struct {
	// Set to EventFrameType for event push frames
	Type string `json:"type,omitempty"`

	// Response fields
	RequestID string `json:"request_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	// Event fields
	EventType string `json:"event_type,omitempty"`

	// Response data or event data, depending on the frame kind
	Data json.RawMessage `json:"data,omitempty"`
}

// IsEvent reports whether the frame is a server-pushed event.
func (in *Inbound) IsEvent() bool {
	return in.Type == EventFrameType
}

// IsResponse reports whether the frame is a response to a routed request.
func (in *Inbound) IsResponse() bool {
	return in.Type != EventFrameType && in.RequestID != ""
}

// --------------------------------------------------------------------------
// Envelope Factory Functions
// --------------------------------------------------------------------------

// newEnvelope creates an envelope with a fresh id and timestamp
func newEnvelope(msgType MessageType, payload Payload) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		MsgType:   msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// NewRouteEnvelope creates a new Route envelope for a service call.
// The envelope id is the correlation id the response must carry.
func NewRouteEnvelope(sender, action string, params json.RawMessage, timeout time.Duration) *Envelope {
	return newEnvelope(MsgTRoute, Payload{
		Sender:    sender,
		Action:    action,
		Params:    params,
		TimeoutMS: timeout.Milliseconds(),
	})
}

// NewPublishEnvelope creates a new Publish envelope for an outbound event.
func NewPublishEnvelope(sender, eventType string, data json.RawMessage) *Envelope {
	return newEnvelope(MsgTPublish, Payload{
		Sender:    sender,
		EventType: eventType,
		Data:      data,
	})
}

// NewSubscribeEnvelope creates a new Subscribe control envelope.
func NewSubscribeEnvelope(subscriberID, eventType string) *Envelope {
	return newEnvelope(MsgTSubscribe, Payload{
		SubscriberID: subscriberID,
		EventType:    eventType,
	})
}

// NewUnsubscribeEnvelope creates a new Unsubscribe control envelope.
func NewUnsubscribeEnvelope(subscriberID, eventType string) *Envelope {
	return newEnvelope(MsgTUnsubscribe, Payload{
		SubscriberID: subscriberID,
		EventType:    eventType,
	})
}

// NewHeartbeatEnvelope creates a new Heartbeat envelope with empty payload.
func NewHeartbeatEnvelope(sender string) *Envelope {
	return newEnvelope(MsgTHeartbeat, Payload{
		Sender: sender,
		Params: json.RawMessage(`{}`),
	})
}

// --------------------------------------------------------------------------
// Inbound Factory Functions
// --------------------------------------------------------------------------

// NewResponseFrame creates a response frame for a request id. A non-nil err
// produces a failure frame carrying the error message.
func NewResponseFrame(requestID string, data json.RawMessage, err error) *Inbound {
	in := &Inbound{
		RequestID: requestID,
		Success:   err == nil,
		Data:      data,
	}
	if err != nil {
		in.Error = err.Error()
	}
	return in
}

// NewEventFrame creates a server-pushed event frame.
func NewEventFrame(eventType string, data json.RawMessage) *Inbound {
	return &Inbound{
		Type:      EventFrameType,
		EventType: eventType,
		Data:      data,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of an Envelope.
type MessageType uint8

const (
	MsgTUnknown MessageType = iota

	MsgTRoute       // Service call routed to the Core
	MsgTPublish     // Client-published event
	MsgTSubscribe   // Enable server-side delivery of an event type
	MsgTUnsubscribe // Disable server-side delivery of an event type
	MsgTHeartbeat   // Keep-alive
)

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRoute:
		return "Route"
	case MsgTPublish:
		return "Publish"
	case MsgTSubscribe:
		return "Subscribe"
	case MsgTUnsubscribe:
		return "Unsubscribe"
	case MsgTHeartbeat:
		return "Heartbeat"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "Route":
		*t = MsgTRoute
	case "Publish":
		*t = MsgTPublish
	case "Subscribe":
		*t = MsgTSubscribe
	case "Unsubscribe":
		*t = MsgTUnsubscribe
	case "Heartbeat":
		*t = MsgTHeartbeat
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}
