package socket

import (
	"bufio"
	"bytes"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// read buffer size for the newline-delimited TCP framing
const tcpReadBufferSize = 512 * 1024

// IStreamConn is a framed connection carrying one serialized message per frame
type IStreamConn interface {
	// ReadFrame reads the next complete frame
	ReadFrame() ([]byte, error)

	// WriteFrame writes one complete frame
	WriteFrame(b []byte) error

	// Close closes the underlying connection
	Close() error
}

// --------------------------------------------------------------------------
// TCP (newline-delimited frames)
// --------------------------------------------------------------------------

// dialTCP establishes a newline-delimited frame connection over TCP
func dialTCP(addr string, timeout time.Duration) (IStreamConn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return &tcpConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, tcpReadBufferSize),
	}, nil
}

type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *tcpConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func (c *tcpConn) WriteFrame(b []byte) error {
	buf := make([]byte, 0, len(b)+1)
	buf = append(buf, b...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

// --------------------------------------------------------------------------
// WebSocket (one message per frame)
// --------------------------------------------------------------------------

// dialWS establishes a WebSocket connection. messageType selects text
// frames (JSON serializer) or binary frames (GOB serializer).
func dialWS(rawURL string, timeout time.Duration, messageType int) (IStreamConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn, messageType: messageType}, nil
}

type wsConn struct {
	conn        *websocket.Conn
	messageType int
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *wsConn) WriteFrame(b []byte) error {
	return c.conn.WriteMessage(c.messageType, b)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
