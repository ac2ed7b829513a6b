package legacy

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
)

// fakeChannel records invoke calls and plays back canned results
type fakeChannel struct {
	mu      sync.Mutex
	calls   []string
	args    [][]any
	results map[string]any
	errs    map[string]error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		results: map[string]any{},
		errs:    map[string]error{},
	}
}

func (f *fakeChannel) invoke(channel string, args ...any) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, channel)
	f.args = append(f.args, args)
	f.mu.Unlock()
	if err := f.errs[channel]; err != nil {
		return nil, err
	}
	return f.results[channel], nil
}

func (f *fakeChannel) callCount(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == channel {
			n++
		}
	}
	return n
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

func newTestTransport(f *fakeChannel) (transport.ITransport, chan *common.Inbound) {
	tr := New(f.invoke)
	frames := make(chan *common.Inbound, 16)
	tr.Handle(func(in *common.Inbound) { frames <- in })
	return tr, frames
}

func TestOpenProbesConnectivity(t *testing.T) {
	f := newFakeChannel()
	f.results["core:is-connected"] = true

	tr, _ := newTestTransport(f)
	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if got := f.callCount("core:is-connected"); got != 1 {
		t.Errorf("probe invoked %d times, want 1", got)
	}
}

func TestOpenRejectsDisconnectedCore(t *testing.T) {
	cases := map[string]func(f *fakeChannel){
		"probe returns false":    func(f *fakeChannel) { f.results["core:is-connected"] = false },
		"probe returns non-bool": func(f *fakeChannel) { f.results["core:is-connected"] = "yes" },
		"probe fails":            func(f *fakeChannel) { f.errs["core:is-connected"] = errors.New("channel gone") },
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFakeChannel()
			setup(f)

			tr, _ := newTestTransport(f)
			err := tr.Open()
			var connErr *common.ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("expected ConnectionError, got %v", err)
			}
		})
	}
}

func TestRouteMapsChannelResult(t *testing.T) {
	f := newFakeChannel()
	f.results["core:request"] = map[string]any{
		"success": true,
		"data":    map[string]string{"content": "hello"},
	}

	tr, frames := newTestTransport(f)
	env := common.NewRouteEnvelope("client-1", "file.read", json.RawMessage(`{"path":"/a"}`), time.Second)
	if err := tr.Send(env); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	in := awaitFrame(t, frames)
	if in.RequestID != env.ID {
		t.Errorf("request id = %q, want the envelope id %q", in.RequestID, env.ID)
	}
	if !in.Success {
		t.Errorf("expected success, got error %q", in.Error)
	}
	if string(in.Data) != `{"content":"hello"}` {
		t.Errorf("data = %s", in.Data)
	}

	// the envelope itself travels as the channel argument
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.args) != 1 || len(f.args[0]) != 1 {
		t.Fatalf("unexpected invoke arguments: %v", f.args)
	}
	if sent, ok := f.args[0][0].(*common.Envelope); !ok || sent.ID != env.ID {
		t.Errorf("invoke argument = %v, want the route envelope", f.args[0][0])
	}
}

func TestRouteFailureResult(t *testing.T) {
	f := newFakeChannel()
	f.results["core:request"] = map[string]any{
		"success": false,
		"error":   "no such file",
	}

	tr, frames := newTestTransport(f)
	env := common.NewRouteEnvelope("client-1", "file.read", nil, time.Second)
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
}

func TestRouteInvokeError(t *testing.T) {
	f := newFakeChannel()
	f.errs["core:request"] = errors.New("channel gone")

	tr, frames := newTestTransport(f)
	env := common.NewRouteEnvelope("client-1", "file.read", nil, time.Second)
	// invoke errors are carried in the frame, Send itself succeeds
	if err := tr.Send(env); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	in := awaitFrame(t, frames)
	if in.Success {
		t.Fatal("expected a failure frame")
	}
	if in.Error != "channel gone" {
		t.Errorf("error = %q, want %q", in.Error, "channel gone")
	}
}

func TestControlEnvelopesUseRequestChannel(t *testing.T) {
	f := newFakeChannel()
	f.results["core:request"] = map[string]any{"success": true}

	tr, _ := newTestTransport(f)
	envelopes := []*common.Envelope{
		common.NewSubscribeEnvelope("client-1", "doc.saved"),
		common.NewPublishEnvelope("client-1", "doc.saved", json.RawMessage(`{}`)),
		common.NewUnsubscribeEnvelope("client-1", "doc.saved"),
	}
	for _, env := range envelopes {
		if err := tr.Send(env); err != nil {
			t.Fatalf("send %s failed: %v", env.MsgType, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.callCount("core:request") == len(envelopes) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("expected %d core:request calls, got %d", len(envelopes), f.callCount("core:request"))
}

func TestHeartbeatIsANoOp(t *testing.T) {
	f := newFakeChannel()

	tr, _ := newTestTransport(f)
	if err := tr.Send(common.NewHeartbeatEnvelope("client-1")); err != nil {
		t.Fatalf("heartbeat send failed: %v", err)
	}
	if tr.RequiresHeartbeat() {
		t.Error("legacy transport must not require heartbeats")
	}
	if got := f.callCount("core:request"); got != 0 {
		t.Errorf("heartbeat reached the channel: %d calls", got)
	}
}
