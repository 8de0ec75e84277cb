// Package mcp exposes the daemon's control socket as MCP tools over stdio.
package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sunmonlok/sunmonlok/internal/ipc"
)

const (
	ServerName    = "sunmonlok"
	ServerVersion = "0.1.0"
)

// Control is the subset of the control socket client the tools use.
type Control interface {
	GetStatus() (*ipc.StatusData, error)
	GetMapping() (*ipc.MappingData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	RefreshMapping() (*ipc.RefreshData, error)
}

// Server is the MCP server for a running sunmonlok daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	control   Control
}

// NewServer creates an MCP server that forwards to control.
func NewServer(control Control) *Server {
	s := &Server{control: control}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the sunmonlok daemon is running, which compositor backend it uses, how many clients are connected and the last target index sent to them.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_mapping",
		Description: "Show the display name to Sunshine index table parsed from the Sunshine log, or report that the daemon is ranking displays left to right because no log was usable.",
	}, s.handleGetMapping)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the displays the compositor currently reports, with their scale-adjusted bounds and the target index each one maps to.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_mapping",
		Description: "Force the daemon to re-read the Sunshine log now, ignoring the refresh cooldown. Use after Sunshine restarts or a virtual display is added.",
	}, s.handleRefreshMapping)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.control.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out := StatusOutput{
		Running:          true,
		UptimeSeconds:    st.UptimeSeconds,
		Backend:          st.Backend,
		BindAddress:      st.BindAddress,
		WebsocketAddress: st.WebsocketAddress,
		Listeners:        st.Listeners,
		CurrentIndex:     -1,
		Strategy:         st.Strategy,
		Emitted:          st.Emitted,
		Suppressed:       st.Suppressed,
	}
	if st.LastIndex != nil {
		out.CurrentIndex = *st.LastIndex
	}
	return nil, out, nil
}

func (s *Server) handleGetMapping(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, MappingOutput, error) {
	m, err := s.control.GetMapping()
	if err != nil {
		return nil, MappingOutput{}, err
	}
	return nil, mappingOutput(m), nil
}

func (s *Server) handleRefreshMapping(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, MappingOutput, error) {
	r, err := s.control.RefreshMapping()
	if err != nil {
		return nil, MappingOutput{}, err
	}
	out := mappingOutput(&r.Mapping)
	out.Refreshed = r.Refreshed
	return nil, out, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, MonitorsOutput, error) {
	data, err := s.control.GetMonitors()
	if err != nil {
		return nil, MonitorsOutput{}, err
	}
	out := MonitorsOutput{Monitors: make([]MonitorRow, 0, len(data.Monitors))}
	for _, m := range data.Monitors {
		row := MonitorRow{
			Name: m.Name, X: m.X, Y: m.Y, Width: m.Width, Height: m.Height, Scale: m.Scale,
			Left: m.Left, Right: m.Right, Top: m.Top, Bottom: m.Bottom,
			Index:    -1,
			Strategy: m.Strategy,
		}
		if m.Index != nil {
			row.Index = *m.Index
		}
		out.Monitors = append(out.Monitors, row)
	}
	for _, o := range data.Overlaps {
		out.Overlaps = append(out.Overlaps, Overlap{First: o[0], Second: o[1]})
	}
	return nil, out, nil
}

func mappingOutput(m *ipc.MappingData) MappingOutput {
	out := MappingOutput{
		Entries:   make([]MappingRow, 0, len(m.Entries)),
		Fallback:  m.Fallback,
		Source:    m.Source,
		LastError: m.LastError,
	}
	if !m.LastRefresh.IsZero() {
		out.LastRefresh = m.LastRefresh.Format(time.RFC3339)
	}
	for _, e := range m.Entries {
		out.Entries = append(out.Entries, MappingRow{Index: e.Index, Name: e.Name, Description: e.Description})
	}
	return out
}
