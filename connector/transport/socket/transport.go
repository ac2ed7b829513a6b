package socket

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/serializer"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
	"github.com/gorilla/websocket"
)

var Logger = common.GetLogger("transport/socket")

// socket framing kinds, derived from the URL scheme
const (
	kindTCP = "tcp"
	kindWS  = "websocket"
)

// New creates a new socket transport for opts.URL. Supported schemes are
// "tcp" (newline-delimited frames, JSON serializer only), "ws" and "wss".
func New(opts common.Options, ser serializer.IWireSerializer) (transport.ITransport, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid socket url %q: %v", opts.URL, err)
	}

	t := &socketTransport{opts: opts, ser: ser}

	switch u.Scheme {
	case "tcp":
		if ser.GetName() != "json" {
			return nil, fmt.Errorf("tcp framing is newline-delimited and requires the json serializer, got %s", ser.GetName())
		}
		t.kind = kindTCP
		t.addr = u.Host
	case "ws", "wss":
		t.kind = kindWS
		t.addr = opts.URL
		t.wsMessageType = websocket.TextMessage
		if ser.GetName() != "json" {
			t.wsMessageType = websocket.BinaryMessage
		}
	default:
		return nil, fmt.Errorf("unsupported socket scheme %q", u.Scheme)
	}

	return t, nil
}

// socketTransport implements transport.ITransport over a framed connection
type socketTransport struct {
	opts common.Options
	ser  serializer.IWireSerializer

	kind          string
	addr          string
	wsMessageType int

	mu      sync.Mutex // guards conn and stopped
	writeMu sync.Mutex // serializes frame writes
	conn    IStreamConn
	stopped *atomic.Bool // owned by the current reader goroutine

	handler      transport.MessageHandler
	closeHandler transport.CloseHandler
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ITransport)
// --------------------------------------------------------------------------

func (t *socketTransport) GetName() string {
	return "socket"
}

func (t *socketTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	var (
		conn IStreamConn
		err  error
	)
	switch t.kind {
	case kindTCP:
		conn, err = dialTCP(t.addr, t.opts.Timeout)
	case kindWS:
		conn, err = dialWS(t.addr, t.opts.Timeout, t.wsMessageType)
	}
	if err != nil {
		return fmt.Errorf("failed to dial %s: %v", t.addr, err)
	}

	stopped := &atomic.Bool{}
	t.conn = conn
	t.stopped = stopped

	go t.readFrames(conn, stopped)

	Logger.Infof("connected to %s via %s", t.addr, t.kind)
	return nil
}

func (t *socketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	// Suppress the close handler before closing so the reader goroutine
	// does not report the teardown as a connection loss
	t.stopped.Store(true)
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *socketTransport) Send(env *common.Envelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return common.NewConnectionError("socket is not open")
	}

	b, err := t.ser.SerializeEnvelope(*env)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteFrame(b)
}

func (t *socketTransport) Handle(handler transport.MessageHandler) {
	t.handler = handler
}

func (t *socketTransport) HandleClose(handler transport.CloseHandler) {
	t.closeHandler = handler
}

func (t *socketTransport) RequiresHeartbeat() bool {
	return true
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readFrames reads inbound frames in a loop and hands them to the message
// handler. On a read failure it reports the loss exactly once, unless the
// transport was closed explicitly.
func (t *socketTransport) readFrames(conn IStreamConn, stopped *atomic.Bool) {
	for {
		b, err := conn.ReadFrame()
		if err != nil {
			if stopped.Load() {
				return
			}
			stopped.Store(true)
			_ = conn.Close()

			t.mu.Lock()
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()

			Logger.Warnf("connection to %s lost: %v", t.addr, err)
			if t.closeHandler != nil {
				t.closeHandler(err)
			}
			return
		}

		if len(b) == 0 {
			continue
		}

		in := &common.Inbound{}
		if err := t.ser.DeserializeInbound(b, in); err != nil {
			Logger.Warnf("discarding undecodable frame: %v", err)
			continue
		}

		if t.handler != nil {
			t.handler(in)
		}
	}
}
