package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sunmonlok/sunmonlok/internal/protocol"
)

const defaultWriteTimeout = time.Second

type Config struct {
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server accepts listeners and pushes one-byte events to all of them.
type Server struct {
	set          *ListenerSet
	logger       *slog.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	// sendMu orders broadcasts with the initial state sent to new
	// listeners, so a listener never sees an older index after a newer one.
	sendMu  sync.Mutex
	last    int
	hasLast bool

	mu           sync.Mutex
	listener     net.Listener
	httpServer   *http.Server
	wsListener   net.Listener
	shuttingDown bool
	wg           sync.WaitGroup
}

func NewServer(cfg Config) *Server {
	s := &Server{
		set:          NewListenerSet(),
		logger:       cfg.Logger,
		writeTimeout: cfg.WriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64,
			WriteBufferSize: 64,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	return s
}

// Start binds the TCP endpoint and begins accepting listeners. A bind
// failure is returned to the caller.
func (s *Server) Start(bind string, port int) error {
	addr := net.JoinHostPort(bind, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind broadcast server on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("broadcast server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound TCP address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// StartWebsocket serves websocket listeners on addr at any path.
func (s *Server) StartWebsocket(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind websocket endpoint on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.httpServer = srv
	s.wsListener = ln
	s.mu.Unlock()

	s.logger.Info("websocket endpoint listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket endpoint stopped", "error", err)
		}
	}()
	return nil
}

// WebsocketAddr returns the bound websocket address, or nil.
func (s *Server) WebsocketAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wsListener == nil {
		return nil
	}
	return s.wsListener.Addr()
}

// Handler upgrades HTTP requests to websocket listeners.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		l := &wsListener{conn: conn, timeout: s.writeTimeout}
		if !s.admit(l) {
			return
		}
		l.wait()
		s.drop(l, nil)
	})
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Warn("broadcast accept error", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		l := &tcpListener{conn: conn, timeout: s.writeTimeout}
		go func() {
			if !s.admit(l) {
				return
			}
			l.wait()
			s.drop(l, nil)
		}()
	}
}

// admit sends the current state to l and adds it to the set.
func (s *Server) admit(l Listener) bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.stopping() {
		_ = l.Close()
		return false
	}
	if s.hasLast {
		if err := l.Send(byte(s.last)); err != nil {
			s.logger.Info("listener failed initial sync", "kind", l.Kind(), "remote", l.RemoteAddr(), "error", err)
			_ = l.Close()
			return false
		}
	}
	s.set.Add(l)
	s.logger.Info("listener connected", "kind", l.Kind(), "remote", l.RemoteAddr(), "listeners", s.set.Len())
	return true
}

func (s *Server) drop(l Listener, cause error) {
	if !s.set.Remove(l) {
		return
	}
	_ = l.Close()
	if cause != nil {
		s.logger.Info("listener dropped", "kind", l.Kind(), "remote", l.RemoteAddr(), "error", cause, "listeners", s.set.Len())
		return
	}
	s.logger.Info("listener disconnected", "kind", l.Kind(), "remote", l.RemoteAddr(), "listeners", s.set.Len())
}

// Broadcast delivers index to every connected listener. Listeners whose
// write fails are dropped; Broadcast itself never fails.
func (s *Server) Broadcast(index int) {
	b, err := protocol.Encode(index)
	if err != nil {
		s.logger.Warn("refusing to broadcast", "index", index, "error", err)
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.last = index
	s.hasLast = true

	listeners := s.set.Snapshot()
	if len(listeners) == 0 {
		s.logger.Debug("no listeners connected, skipping broadcast", "index", index)
		return
	}

	delivered := 0
	for _, l := range listeners {
		if err := l.Send(b[0]); err != nil {
			s.drop(l, err)
			continue
		}
		delivered++
	}
	s.logger.Debug("broadcast sent", "index", index, "delivered", delivered, "listeners", len(listeners))
}

// LastIndex returns the most recently broadcast index.
func (s *Server) LastIndex() (int, bool) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.last, s.hasLast
}

// ListenerCount returns the number of connected listeners.
func (s *Server) ListenerCount() int {
	return s.set.Len()
}

// Stop closes the endpoints and every listener, then waits for the accept
// loops to exit.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return nil
	}
	s.shuttingDown = true
	ln, srv := s.listener, s.httpServer
	s.mu.Unlock()

	var errs []error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.sendMu.Lock()
	for _, l := range s.set.Snapshot() {
		s.set.Remove(l)
		_ = l.Close()
	}
	s.sendMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}

func (s *Server) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}
