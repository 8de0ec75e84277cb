package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/sunshine"
)

const defaultQueryTimeout = 2 * time.Second

// HyprlandBackend queries Hyprland through hyprctl.
type HyprlandBackend struct {
	run     sunshine.CommandRunner
	timeout time.Duration
}

var _ Backend = (*HyprlandBackend)(nil)

type hyprMonitor struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Scale    float64 `json:"scale"`
	Disabled bool    `json:"disabled"`
}

// NewHyprlandBackend returns a backend that shells out through run. A nil
// run uses os/exec; a non-positive timeout uses the default.
func NewHyprlandBackend(run sunshine.CommandRunner, timeout time.Duration) *HyprlandBackend {
	if run == nil {
		run = sunshine.ExecRunner
	}
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &HyprlandBackend{run: run, timeout: timeout}
}

func (h *HyprlandBackend) Name() string { return string(KindHyprland) }

func (h *HyprlandBackend) Close() error { return nil }

// Ping checks that hyprctl can reach a running compositor.
func (h *HyprlandBackend) Ping(ctx context.Context) error {
	_, err := h.hyprctl(ctx, "version")
	return err
}

// CursorPosition parses the "X, Y" output of hyprctl cursorpos.
func (h *HyprlandBackend) CursorPosition(ctx context.Context) (geometry.Point, error) {
	out, err := h.hyprctl(ctx, "cursorpos")
	if err != nil {
		return geometry.Point{}, err
	}
	return parseCursorPos(out)
}

// Displays returns the enabled monitors reported by hyprctl monitors -j.
func (h *HyprlandBackend) Displays(ctx context.Context) ([]geometry.Record, error) {
	out, err := h.hyprctl(ctx, "monitors", "-j")
	if err != nil {
		return nil, err
	}
	return parseMonitors(out)
}

func (h *HyprlandBackend) hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	out, err := h.run(ctx, "hyprctl", args...)
	if err != nil {
		return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

func parseCursorPos(out []byte) (geometry.Point, error) {
	parts := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(parts) != 2 {
		return geometry.Point{}, fmt.Errorf("unexpected cursor position format: %q", out)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("failed to parse cursor X: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("failed to parse cursor Y: %w", err)
	}
	return geometry.Point{X: x, Y: y}, nil
}

func parseMonitors(out []byte) ([]geometry.Record, error) {
	var monitors []hyprMonitor
	if err := json.Unmarshal(out, &monitors); err != nil {
		return nil, fmt.Errorf("failed to parse monitors JSON: %w", err)
	}
	records := make([]geometry.Record, 0, len(monitors))
	for _, m := range monitors {
		if m.Disabled {
			continue
		}
		records = append(records, geometry.Record{
			ID:     m.ID,
			Name:   m.Name,
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
			Scale:  m.Scale,
		})
	}
	return records, nil
}
