package platform

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/geometry"
)

// Kind names a compositor backend.
type Kind string

const (
	KindAuto     Kind = "auto"
	KindHyprland Kind = "hyprland"
	KindX11      Kind = "x11"
)

// Backend abstracts the compositor queries the server depends on: the
// pointer position and the current display layout, both in the same
// logical coordinate space.
type Backend interface {
	Name() string
	CursorPosition(ctx context.Context) (geometry.Point, error)
	Displays(ctx context.Context) ([]geometry.Record, error)
	Close() error
}

// Open returns the backend for kind. KindAuto prefers Hyprland when the
// session looks like one and hyprctl responds, and X11 otherwise.
// queryTimeout bounds each external compositor query.
func Open(ctx context.Context, kind Kind, queryTimeout time.Duration) (Backend, error) {
	switch kind {
	case KindHyprland:
		return NewHyprlandBackend(nil, queryTimeout), nil
	case KindX11:
		return NewX11Backend()
	case KindAuto, "":
		if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
			hypr := NewHyprlandBackend(nil, queryTimeout)
			if err := hypr.Ping(ctx); err == nil {
				return hypr, nil
			}
		}
		b, err := NewX11Backend()
		if err != nil {
			return nil, fmt.Errorf("no compositor backend available (hyprland not detected, x11: %w)", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}
