package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/runtimepath"
)

// Client talks to a running daemon over its control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, out interface{}) error {
	resp, err := c.sendRequest(&Request{Command: cmd})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Ping checks whether the daemon is reachable.
func (c *Client) Ping() error {
	return c.call(CommandPing, nil)
}

func (c *Client) GetStatus() (*StatusData, error) {
	var data StatusData
	if err := c.call(CommandGetStatus, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) GetMapping() (*MappingData, error) {
	var data MappingData
	if err := c.call(CommandGetMapping, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) GetMonitors() (*MonitorsData, error) {
	var data MonitorsData
	if err := c.call(CommandGetMonitors, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RefreshMapping forces the daemon to re-read the Sunshine log.
func (c *Client) RefreshMapping() (*RefreshData, error) {
	var data RefreshData
	if err := c.call(CommandRefreshMapping, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
