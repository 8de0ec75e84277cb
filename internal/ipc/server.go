package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/runtimepath"
)

const requestTimeout = 5 * time.Second

// Provider answers control requests on behalf of the daemon.
type Provider interface {
	Status() StatusData
	Mapping() MappingData
	Monitors(ctx context.Context) (MonitorsData, error)
	RefreshMapping(ctx context.Context) (RefreshData, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	provider     Provider
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default socket path.
func NewServer(provider Provider) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, provider), nil
}

// NewServerAt creates a server on socketPath, removing a stale socket.
func NewServerAt(socketPath string, provider Provider) *Server {
	os.Remove(socketPath)
	return &Server{
		socketPath: socketPath,
		provider:   provider,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandPing:
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandGetStatus:
		return respond(s.provider.Status(), nil)
	case CommandGetMapping:
		return respond(s.provider.Mapping(), nil)
	case CommandGetMonitors:
		data, err := s.provider.Monitors(ctx)
		return respond(data, err)
	case CommandRefreshMapping:
		data, err := s.provider.RefreshMapping(ctx)
		return respond(data, err)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func respond(data interface{}, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
