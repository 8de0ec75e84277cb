package ipc

import (
	"encoding/json"
	"fmt"
	"time"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing           CommandType = "PING"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandGetMapping     CommandType = "GET_MAPPING"
	CommandGetMonitors    CommandType = "GET_MONITORS"
	CommandRefreshMapping CommandType = "REFRESH_MAPPING"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Backend          string `json:"backend"`
	BindAddress      string `json:"bind_address"`
	WebsocketAddress string `json:"websocket_address,omitempty"`
	Listeners        int    `json:"listeners"`
	LastIndex        *int   `json:"last_index,omitempty"`
	Strategy         string `json:"strategy"`
	Emitted          int    `json:"emitted"`
	Suppressed       int    `json:"suppressed"`
}

// MappingEntry is one row of the Sunshine table.
type MappingEntry struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Reported    int    `json:"reported"`
	Description string `json:"description,omitempty"`
}

// MappingData represents the data returned by GET_MAPPING
type MappingData struct {
	Entries     []MappingEntry `json:"entries"`
	Fallback    bool           `json:"fallback"`
	Source      string         `json:"source,omitempty"`
	LastRefresh time.Time      `json:"last_refresh"`
	Refreshes   int            `json:"refreshes"`
	LastError   string         `json:"last_error,omitempty"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`

	// Effective bounds, half-open.
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`

	Index    *int   `json:"index,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
	Overlaps [][2]string   `json:"overlaps,omitempty"`
}

// RefreshData represents the data returned by REFRESH_MAPPING
type RefreshData struct {
	Refreshed bool        `json:"refreshed"`
	Mapping   MappingData `json:"mapping"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
