package mockcore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/serializer"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = common.GetLogger("mockcore")

// ServiceHandler handles one routed service call
type ServiceHandler func(params json.RawMessage) (any, error)

// NewServer creates a mock Core with the built-in core.ping and core.echo
// services registered
func NewServer(ser serializer.IWireSerializer) *Server {
	s := &Server{
		ser:      ser,
		handlers: xsync.NewMapOf[string, ServiceHandler](),
		conns:    xsync.NewMapOf[uint64, *coreConn](),
	}

	s.Register("core.ping", func(_ json.RawMessage) (any, error) {
		return "pong", nil
	})
	s.Register("core.echo", func(params json.RawMessage) (any, error) {
		return params, nil
	})

	return s
}

// Server is a mock Core process listening on TCP and/or WebSocket
type Server struct {
	ser        serializer.IWireSerializer
	handlers   *xsync.MapOf[string, ServiceHandler]
	conns      *xsync.MapOf[uint64, *coreConn]
	nextConnID atomic.Uint64

	tcpListener net.Listener
	httpServer  *http.Server
}

// Register adds a service handler for an action ("<service>.<method>")
func (s *Server) Register(action string, handler ServiceHandler) {
	s.handlers.Store(action, handler)
}

// ListenTCP starts the newline-delimited TCP listener and returns the
// bound address (useful with ":0")
func (s *Server) ListenTCP(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.tcpListener = ln

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(&serverTCPConn{
				conn:   conn,
				reader: bufio.NewReader(conn),
			})
		}
	}()

	Logger.Infof("mock core listening on tcp://%s", ln.Addr())
	return ln.Addr().String(), nil
}

// ListenWS starts the WebSocket listener and returns the bound address
func (s *Server) ListenWS(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger.Warnf("websocket upgrade failed: %v", err)
			return
		}
		s.serve(&serverWSConn{conn: conn})
	})

	s.httpServer = &http.Server{Handler: mux}
	go func() {
		_ = s.httpServer.Serve(ln)
	}()

	Logger.Infof("mock core listening on ws://%s", ln.Addr())
	return ln.Addr().String(), nil
}

// Broadcast pushes an event frame to every connection subscribed to the
// event type (or to the wildcard "*")
func (s *Server) Broadcast(eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.broadcastFrame(eventType, raw)
	return nil
}

// Close stops all listeners and tears down every connection
func (s *Server) Close() error {
	if s.tcpListener != nil {
		_ = s.tcpListener.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	s.conns.Range(func(id uint64, c *coreConn) bool {
		_ = c.stream.Close()
		s.conns.Delete(id)
		return true
	})
	return nil
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

// coreConn is one client connection with its subscription set
type coreConn struct {
	id      uint64
	stream  serverStreamConn
	subs    *xsync.MapOf[string, struct{}]
	writeMu sync.Mutex
}

// serve runs the read loop for one client connection
func (s *Server) serve(stream serverStreamConn) {
	conn := &coreConn{
		id:     s.nextConnID.Add(1),
		stream: stream,
		subs:   xsync.NewMapOf[string, struct{}](),
	}
	s.conns.Store(conn.id, conn)

	defer func() {
		s.conns.Delete(conn.id)
		_ = stream.Close()
	}()

	for {
		b, err := stream.ReadFrame()
		if err != nil {
			return
		}
		if len(b) == 0 {
			continue
		}

		env := &common.Envelope{}
		if err := s.ser.DeserializeEnvelope(b, env); err != nil {
			Logger.Warnf("discarding undecodable envelope: %v", err)
			continue
		}

		s.handleEnvelope(conn, env)
	}
}

// handleEnvelope processes one envelope from a client connection
func (s *Server) handleEnvelope(conn *coreConn, env *common.Envelope) {
	switch env.MsgType {
	case common.MsgTRoute:
		s.route(conn, env)

	case common.MsgTSubscribe:
		conn.subs.Store(env.Payload.EventType, struct{}{})

	case common.MsgTUnsubscribe:
		conn.subs.Delete(env.Payload.EventType)

	case common.MsgTPublish:
		s.broadcastFrame(env.Payload.EventType, env.Payload.Data)

	case common.MsgTHeartbeat:
		// keep-alives carry no reply

	default:
		Logger.Warnf("ignoring envelope with message type %s", env.MsgType)
	}
}

// route dispatches a Route envelope to its service handler and writes the
// response frame
func (s *Server) route(conn *coreConn, env *common.Envelope) {
	handler, ok := s.handlers.Load(env.Payload.Action)
	if !ok {
		s.respond(conn, common.NewResponseFrame(env.ID, nil, fmt.Errorf("unknown action %q", env.Payload.Action)))
		return
	}

	result, err := handler(env.Payload.Params)
	if err != nil {
		s.respond(conn, common.NewResponseFrame(env.ID, nil, err))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.respond(conn, common.NewResponseFrame(env.ID, nil, err))
		return
	}

	s.respond(conn, common.NewResponseFrame(env.ID, data, nil))
}

// respond writes a frame to one connection
func (s *Server) respond(conn *coreConn, in *common.Inbound) {
	b, err := s.ser.SerializeInbound(*in)
	if err != nil {
		Logger.Errorf("failed to serialize frame: %v", err)
		return
	}
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	if err := conn.stream.WriteFrame(b); err != nil {
		Logger.Warnf("failed to write to connection %d: %v", conn.id, err)
	}
}

// broadcastFrame pushes an event frame to all subscribed connections
func (s *Server) broadcastFrame(eventType string, data json.RawMessage) {
	frame := common.NewEventFrame(eventType, data)
	s.conns.Range(func(_ uint64, conn *coreConn) bool {
		_, exact := conn.subs.Load(eventType)
		_, wildcard := conn.subs.Load("*")
		if exact || wildcard {
			s.respond(conn, frame)
		}
		return true
	})
}

// --------------------------------------------------------------------------
// Server-side framed connections
// --------------------------------------------------------------------------

// serverStreamConn mirrors the client-side framing for the server side
type serverStreamConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(b []byte) error
	Close() error
}

type serverTCPConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *serverTCPConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func (c *serverTCPConn) WriteFrame(b []byte) error {
	buf := make([]byte, 0, len(b)+1)
	buf = append(buf, b...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *serverTCPConn) Close() error {
	return c.conn.Close()
}

type serverWSConn struct {
	conn *websocket.Conn
}

func (c *serverWSConn) ReadFrame() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *serverWSConn) WriteFrame(b []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *serverWSConn) Close() error {
	return c.conn.Close()
}
