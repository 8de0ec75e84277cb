package broadcast

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type tcpListener struct {
	conn    net.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (l *tcpListener) Send(b byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}
	_, err := l.conn.Write([]byte{b})
	return err
}

func (l *tcpListener) Close() error       { return l.conn.Close() }
func (l *tcpListener) Kind() string       { return "tcp" }
func (l *tcpListener) RemoteAddr() string { return l.conn.RemoteAddr().String() }

// wait blocks until the peer closes the connection. Listeners never send
// anything meaningful, so inbound bytes are discarded.
func (l *tcpListener) wait() {
	buf := make([]byte, 64)
	for {
		if _, err := l.conn.Read(buf); err != nil {
			return
		}
	}
}

// wsListener delivers each event as a one-byte binary message.
type wsListener struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (l *wsListener) Send(b byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}
	return l.conn.WriteMessage(websocket.BinaryMessage, []byte{b})
}

func (l *wsListener) Close() error       { return l.conn.Close() }
func (l *wsListener) Kind() string       { return "websocket" }
func (l *wsListener) RemoteAddr() string { return l.conn.RemoteAddr().String() }

func (l *wsListener) wait() {
	for {
		if _, _, err := l.conn.NextReader(); err != nil {
			return
		}
	}
}
