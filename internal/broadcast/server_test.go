package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(Config{Logger: quietLogger()})
	if err := s.Start("127.0.0.1", 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForListeners(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ListenerCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d listeners, have %d", want, s.ListenerCount())
}

func readByte(t *testing.T, conn net.Conn) byte {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf[0]
}

func TestBroadcast_FanOut(t *testing.T) {
	s := startServer(t)
	conns := []net.Conn{dial(t, s), dial(t, s), dial(t, s)}
	waitForListeners(t, s, 3)

	s.Broadcast(2)

	for i, c := range conns {
		if got := readByte(t, c); got != 0x02 {
			t.Fatalf("listener %d got %#x, want 0x02", i, got)
		}
	}
}

func TestBroadcast_DisconnectedListenerDoesNotBlockOthers(t *testing.T) {
	s := startServer(t)
	a, b, c := dial(t, s), dial(t, s), dial(t, s)
	waitForListeners(t, s, 3)

	b.Close()
	s.Broadcast(2)

	for _, conn := range []net.Conn{a, c} {
		if got := readByte(t, conn); got != 0x02 {
			t.Fatalf("got %#x, want 0x02", got)
		}
	}
	waitForListeners(t, s, 2)
}

type failingListener struct {
	mu     sync.Mutex
	closed bool
}

func (f *failingListener) Send(byte) error    { return errors.New("broken pipe") }
func (f *failingListener) Kind() string       { return "fake" }
func (f *failingListener) RemoteAddr() string { return "fake" }
func (f *failingListener) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type recordingListener struct {
	mu  sync.Mutex
	got []byte
}

func (r *recordingListener) Send(b byte) error {
	r.mu.Lock()
	r.got = append(r.got, b)
	r.mu.Unlock()
	return nil
}
func (r *recordingListener) Close() error       { return nil }
func (r *recordingListener) Kind() string       { return "fake" }
func (r *recordingListener) RemoteAddr() string { return "fake" }

func TestBroadcast_WriteFailureDropsOnlyThatListener(t *testing.T) {
	s := NewServer(Config{Logger: quietLogger()})
	bad := &failingListener{}
	good1, good2 := &recordingListener{}, &recordingListener{}
	s.set.Add(good1)
	s.set.Add(bad)
	s.set.Add(good2)

	s.Broadcast(5)

	if s.ListenerCount() != 2 {
		t.Fatalf("expected failing listener to be dropped, have %d", s.ListenerCount())
	}
	if !bad.closed {
		t.Fatalf("expected failing listener to be closed")
	}
	for _, l := range []*recordingListener{good1, good2} {
		if len(l.got) != 1 || l.got[0] != 5 {
			t.Fatalf("expected [5], got %v", l.got)
		}
	}
}

func TestBroadcast_InvalidIndexIgnored(t *testing.T) {
	s := NewServer(Config{Logger: quietLogger()})
	l := &recordingListener{}
	s.set.Add(l)

	s.Broadcast(11)
	s.Broadcast(-1)

	if len(l.got) != 0 {
		t.Fatalf("out-of-range indices must not be sent, got %v", l.got)
	}
	if _, ok := s.LastIndex(); ok {
		t.Fatalf("out-of-range index must not become current state")
	}
}

func TestNewListenerReceivesCurrentState(t *testing.T) {
	s := startServer(t)
	s.Broadcast(4)

	conn := dial(t, s)
	if got := readByte(t, conn); got != 4 {
		t.Fatalf("expected current state 4 on connect, got %d", got)
	}
	waitForListeners(t, s, 1)
}

func TestStart_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := NewServer(Config{Logger: quietLogger()})
	if err := s.Start("127.0.0.1", port); err == nil {
		t.Fatalf("expected bind failure on port %s", strconv.Itoa(port))
	}
}

func TestWebsocketListener(t *testing.T) {
	s := NewServer(Config{Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()
	waitForListeners(t, s, 1)

	s.Broadcast(7)

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage || len(data) != 1 || data[0] != 7 {
		t.Fatalf("unexpected message type=%d data=%v", mt, data)
	}

	conn.Close()
	waitForListeners(t, s, 0)
}

func TestListenerSet(t *testing.T) {
	set := NewListenerSet()
	a, b := &recordingListener{}, &recordingListener{}
	set.Add(a)
	set.Add(b)
	set.Add(a)
	if set.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", set.Len())
	}
	if !set.Remove(a) || set.Remove(a) {
		t.Fatalf("Remove should report presence exactly once")
	}
	if snap := set.Snapshot(); len(snap) != 1 || snap[0] != Listener(b) {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}
