//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/x11"
)

// X11Backend wraps an X11 connection behind the platform Backend interface.
type X11Backend struct {
	mu   sync.Mutex
	conn *x11.Connection
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend opens a fresh X11 connection.
func NewX11Backend() (*X11Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{conn: conn}, nil
}

func (b *X11Backend) Name() string { return string(KindX11) }

// Close closes the underlying X11 connection.
func (b *X11Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	return nil
}

// CursorPosition returns the pointer position on the root window.
func (b *X11Backend) CursorPosition(ctx context.Context) (geometry.Point, error) {
	if err := ctx.Err(); err != nil {
		return geometry.Point{}, err
	}
	conn, err := b.connection()
	if err != nil {
		return geometry.Point{}, err
	}
	x, y, err := conn.PointerPosition()
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{X: float64(x), Y: float64(y)}, nil
}

// Displays returns all active RandR outputs.
func (b *X11Backend) Displays(ctx context.Context) ([]geometry.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	records := make([]geometry.Record, 0, len(monitors))
	for _, m := range monitors {
		records = append(records, recordFromMonitor(m))
	}
	return records, nil
}

func (b *X11Backend) connection() (*x11.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil, fmt.Errorf("x11 backend is closed")
	}
	return b.conn, nil
}

func recordFromMonitor(m x11.Monitor) geometry.Record {
	return geometry.Record{
		ID:     m.ID,
		Name:   m.Name,
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
		Scale:  1,
	}
}
