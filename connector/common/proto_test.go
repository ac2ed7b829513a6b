package common

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRouteEnvelopeWireFormat(t *testing.T) {
	env := NewRouteEnvelope("client-1", "file.read", json.RawMessage(`{"path":"/a"}`), 500*time.Millisecond)

	if env.ID == "" {
		t.Fatal("expected a generated envelope id")
	}
	if _, err := time.Parse(time.RFC3339Nano, env.Timestamp); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", env.Timestamp, err)
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// check the wire key names, not just a Go-level round trip
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(b, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"id", "message_type", "payload", "timestamp"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("missing wire key %q", key)
		}
	}
	if string(wire["message_type"]) != `"Route"` {
		t.Errorf("message_type = %s, want \"Route\"", wire["message_type"])
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(wire["payload"], &payload); err != nil {
		t.Fatalf("unmarshal payload failed: %v", err)
	}
	if string(payload["action"]) != `"file.read"` {
		t.Errorf("action = %s", payload["action"])
	}
	if string(payload["sender"]) != `"client-1"` {
		t.Errorf("sender = %s", payload["sender"])
	}
	if string(payload["timeout_ms"]) != "500" {
		t.Errorf("timeout_ms = %s, want 500", payload["timeout_ms"])
	}
	// fields of other message kinds stay off the wire
	for _, key := range []string{"event_type", "data", "subscriber_id"} {
		if _, ok := payload[key]; ok {
			t.Errorf("unexpected wire key %q on a route payload", key)
		}
	}
}

func TestHeartbeatEnvelopeHasEmptyParams(t *testing.T) {
	env := NewHeartbeatEnvelope("client-1")

	if env.MsgType != MsgTHeartbeat {
		t.Fatalf("message type = %s", env.MsgType)
	}
	if string(env.Payload.Params) != "{}" {
		t.Errorf("params = %s, want {}", env.Payload.Params)
	}
}

func TestInboundFrameClassification(t *testing.T) {
	event := NewEventFrame("doc.saved", json.RawMessage(`{}`))
	if !event.IsEvent() || event.IsResponse() {
		t.Error("event frame misclassified")
	}

	resp := NewResponseFrame("req-1", json.RawMessage(`"ok"`), nil)
	if resp.IsEvent() || !resp.IsResponse() {
		t.Error("response frame misclassified")
	}
	if !resp.Success {
		t.Error("expected success for nil error")
	}

	failure := NewResponseFrame("req-2", nil, errors.New("no such file"))
	if failure.Success {
		t.Error("expected success=false for non-nil error")
	}
	if failure.Error == "" {
		t.Error("expected the error message on the frame")
	}
}

func TestMessageTypeJSON(t *testing.T) {
	for _, msgType := range []MessageType{MsgTRoute, MsgTPublish, MsgTSubscribe, MsgTUnsubscribe, MsgTHeartbeat} {
		b, err := json.Marshal(msgType)
		if err != nil {
			t.Fatalf("marshal %s failed: %v", msgType, err)
		}

		var back MessageType
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s failed: %v", b, err)
		}
		if back != msgType {
			t.Errorf("round trip of %s produced %s", msgType, back)
		}
	}

	var unknown MessageType
	if err := json.Unmarshal([]byte(`"Bogus"`), &unknown); err == nil {
		t.Error("expected an error for an unknown message type string")
	}
}
