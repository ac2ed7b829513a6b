package socket

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/serializer"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
)

func mustSerializer(t *testing.T, name string) serializer.IWireSerializer {
	t.Helper()
	ser, err := serializer.New(name)
	if err != nil {
		t.Fatalf("failed to create %s serializer: %v", name, err)
	}
	return ser
}

func TestNewValidatesURL(t *testing.T) {
	jsonSer := mustSerializer(t, "json")
	gobSer := mustSerializer(t, "gob")

	cases := map[string]struct {
		url string
		ser serializer.IWireSerializer
		ok  bool
	}{
		"tcp with json":      {"tcp://127.0.0.1:8192", jsonSer, true},
		"ws with json":       {"ws://127.0.0.1:8192", jsonSer, true},
		"wss with gob":       {"wss://core.local:8192", gobSer, true},
		"tcp with gob":       {"tcp://127.0.0.1:8192", gobSer, false},
		"unsupported scheme": {"udp://127.0.0.1:8192", jsonSer, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			opts := common.DefaultOptions()
			opts.URL = tc.url

			_, err := New(opts, tc.ser)
			if tc.ok && err != nil {
				t.Fatalf("expected %q to be accepted, got %v", tc.url, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected %q to be rejected", tc.url)
			}
		})
	}
}

// echoPeer is a single-connection TCP peer speaking newline-delimited JSON.
// Every route envelope is answered with a response frame echoing the params.
func echoPeer(t *testing.T) (addr string, dropConn func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	var conn atomic.Value // net.Conn
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Store(c)

		reader := bufio.NewReader(c)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}

			env := &common.Envelope{}
			if err := json.Unmarshal(bytes.TrimRight(line, "\r\n"), env); err != nil {
				t.Errorf("peer received an undecodable frame: %v", err)
				return
			}
			if env.MsgType != common.MsgTRoute {
				continue
			}

			b, _ := json.Marshal(common.NewResponseFrame(env.ID, env.Payload.Params, nil))
			if _, err := c.Write(append(b, '\n')); err != nil {
				return
			}
		}
	}()

	return ln.Addr().String(), func() {
		if c, ok := conn.Load().(net.Conn); ok {
			_ = c.Close()
		}
	}
}

func newTCPTransport(t *testing.T, addr string) (transport.ITransport, chan *common.Inbound, chan error) {
	t.Helper()

	opts := common.DefaultOptions()
	opts.URL = "tcp://" + addr
	opts.Timeout = 2 * time.Second

	tr, err := New(opts, mustSerializer(t, "json"))
	if err != nil {
		t.Fatalf("failed to create transport: %v", err)
	}

	frames := make(chan *common.Inbound, 16)
	losses := make(chan error, 16)
	tr.Handle(func(in *common.Inbound) { frames <- in })
	tr.HandleClose(func(err error) { losses <- err })

	return tr, frames, losses
}

func TestTCPRequestResponse(t *testing.T) {
	addr, _ := echoPeer(t)
	tr, frames, _ := newTCPTransport(t, addr)

	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer tr.Close()

	env := common.NewRouteEnvelope("client-1", "core.echo", json.RawMessage(`{"n":1}`), time.Second)
	if err := tr.Send(env); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case in := <-frames:
		if in.RequestID != env.ID {
			t.Errorf("request id = %q, want %q", in.RequestID, env.ID)
		}
		if string(in.Data) != `{"n":1}` {
			t.Errorf("data = %s", in.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response frame")
	}
}

func TestPeerCloseReportsLossOnce(t *testing.T) {
	addr, dropConn := echoPeer(t)
	tr, _, losses := newTCPTransport(t, addr)

	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// wait for the peer to accept before cutting the connection
	time.Sleep(20 * time.Millisecond)
	dropConn()

	select {
	case err := <-losses:
		if err == nil {
			t.Error("expected a non-nil loss error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connection loss never reported")
	}

	select {
	case err := <-losses:
		t.Fatalf("loss reported twice: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// the transport is closed now, sends must fail
	if err := tr.Send(common.NewHeartbeatEnvelope("client-1")); err == nil {
		t.Error("expected send to fail after connection loss")
	}
}

func TestExplicitCloseIsSilent(t *testing.T) {
	addr, _ := echoPeer(t)
	tr, _, losses := newTCPTransport(t, addr)

	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	select {
	case err := <-losses:
		t.Fatalf("explicit close reported as a loss: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	addr, _ := echoPeer(t)
	tr, _, _ := newTCPTransport(t, addr)

	if err := tr.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer tr.Close()

	if err := tr.Open(); err != nil {
		t.Fatalf("second open on a live connection should be a no-op, got %v", err)
	}
}

func TestOpenDialFailure(t *testing.T) {
	// a listener that is closed immediately leaves a refused port behind
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	tr, _, _ := newTCPTransport(t, addr)
	if err := tr.Open(); err == nil {
		t.Fatal("expected dial failure")
	}
}
