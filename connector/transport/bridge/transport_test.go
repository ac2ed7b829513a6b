package bridge

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
)

// fakeBridge implements Bridge, BridgeEvents and BridgeEmitter
type fakeBridge struct {
	mu        sync.Mutex
	invokeErr error
	invoked   []string // "<namespace>.<action>" per call
	handlers  map[string]func(data any)
	unsubbed  []string
	emitted   []string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{handlers: map[string]func(data any){}}
}

func (b *fakeBridge) Invoke(namespace, action string, params any) (any, error) {
	b.mu.Lock()
	b.invoked = append(b.invoked, namespace+"."+action)
	b.mu.Unlock()
	if b.invokeErr != nil {
		return nil, b.invokeErr
	}
	return map[string]any{"params": params}, nil
}

func (b *fakeBridge) On(event string, handler func(data any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, event)
		b.unsubbed = append(b.unsubbed, event)
	}
}

func (b *fakeBridge) Emit(event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitted = append(b.emitted, event)
}

func (b *fakeBridge) fire(event string, data any) {
	b.mu.Lock()
	handler := b.handlers[event]
	b.mu.Unlock()
	if handler != nil {
		handler(data)
	}
}

// collectFrames wires a transport to a channel of delivered frames
func collectFrames(tr transport.ITransport) chan *common.Inbound {
	frames := make(chan *common.Inbound, 16)
	tr.Handle(func(in *common.Inbound) { frames <- in })
	return frames
}

func awaitFrame(t *testing.T, frames chan *common.Inbound) *common.Inbound {
	t.Helper()
	select {
	case in := <-frames:
		return in
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestRouteSynthesizesResponse(t *testing.T) {
	fb := newFakeBridge()
	tr := New(fb)
	frames := collectFrames(tr)

	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	env := common.NewRouteEnvelope("client-1", "file.read", json.RawMessage(`{"path":"/a"}`), time.Second)
	if err := tr.Send(env); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	in := awaitFrame(t, frames)
	if !in.IsResponse() {
		t.Fatalf("expected a response frame, got %+v", in)
	}
	if in.RequestID != env.ID {
		t.Errorf("request id = %q, want the envelope id %q", in.RequestID, env.ID)
	}
	if !in.Success {
		t.Errorf("expected success, got error %q", in.Error)
	}

	fb.mu.Lock()
	invoked := append([]string(nil), fb.invoked...)
	fb.mu.Unlock()
	if len(invoked) != 1 || invoked[0] != "file.read" {
		t.Errorf("bridge invoked with %v, want [file.read]", invoked)
	}
}

func TestInvokeErrorBecomesFailureFrame(t *testing.T) {
	fb := newFakeBridge()
	fb.invokeErr = errors.New("no such file")
	tr := New(fb)
	frames := collectFrames(tr)

	env := common.NewRouteEnvelope("client-1", "file.read", nil, time.Second)
	// invoke errors are carried in the frame, Send itself succeeds
	if err := tr.Send(env); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	in := awaitFrame(t, frames)
	if in.Success {
		t.Fatal("expected a failure frame")
	}
	if in.Error != "no such file" {
		t.Errorf("error = %q, want %q", in.Error, "no such file")
	}
	if in.RequestID != env.ID {
		t.Errorf("request id = %q, want %q", in.RequestID, env.ID)
	}
}

func TestSubscribeDeliversBridgeEvents(t *testing.T) {
	fb := newFakeBridge()
	tr := New(fb)
	frames := collectFrames(tr)

	if err := tr.Send(common.NewSubscribeEnvelope("client-1", "doc.saved")); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	fb.fire("doc.saved", map[string]string{"path": "/a"})

	in := awaitFrame(t, frames)
	if !in.IsEvent() {
		t.Fatalf("expected an event frame, got %+v", in)
	}
	if in.EventType != "doc.saved" {
		t.Errorf("event type = %q", in.EventType)
	}
	if string(in.Data) != `{"path":"/a"}` {
		t.Errorf("event data = %s", in.Data)
	}

	// unsubscribing releases the bridge registration
	if err := tr.Send(common.NewUnsubscribeEnvelope("client-1", "doc.saved")); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	fb.mu.Lock()
	unsubbed := append([]string(nil), fb.unsubbed...)
	fb.mu.Unlock()
	if len(unsubbed) != 1 || unsubbed[0] != "doc.saved" {
		t.Errorf("unsubscribed %v, want [doc.saved]", unsubbed)
	}
}

func TestSubscribeWithoutEventSurface(t *testing.T) {
	tr := New(struct{ common.Bridge }{newFakeBridge()})

	err := tr.Send(common.NewSubscribeEnvelope("client-1", "doc.saved"))
	var connErr *common.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestPublishEmitsIntoBridge(t *testing.T) {
	fb := newFakeBridge()
	tr := New(fb)

	env := common.NewPublishEnvelope("client-1", "doc.saved", json.RawMessage(`{"path":"/a"}`))
	if err := tr.Send(env); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	fb.mu.Lock()
	emitted := append([]string(nil), fb.emitted...)
	fb.mu.Unlock()
	if len(emitted) != 1 || emitted[0] != "doc.saved" {
		t.Errorf("emitted %v, want [doc.saved]", emitted)
	}
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	fb := newFakeBridge()
	tr := New(fb)
	tr.Handle(func(*common.Inbound) {})

	for _, eventType := range []string{"doc.saved", "theme.changed"} {
		if err := tr.Send(common.NewSubscribeEnvelope("client-1", eventType)); err != nil {
			t.Fatalf("subscribe %s failed: %v", eventType, err)
		}
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.unsubbed) != 2 {
		t.Fatalf("expected 2 unsubscribes on close, got %v", fb.unsubbed)
	}
	if len(fb.handlers) != 0 {
		t.Fatalf("bridge still holds %d handlers after close", len(fb.handlers))
	}
}

func TestOpenWithoutBridge(t *testing.T) {
	tr := New(nil)

	err := tr.Open()
	var connErr *common.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}
