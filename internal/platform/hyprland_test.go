package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const monitorsJSON = `[
  {"id": 0, "name": "DP-1", "x": 866, "y": 0, "width": 2560, "height": 1440, "scale": 1.6, "disabled": false},
  {"id": 1, "name": "HDMI-A-1", "x": 3426, "y": 0, "width": 1920, "height": 1080, "scale": 1.0},
  {"id": 2, "name": "DP-3", "x": 0, "y": 0, "width": 1280, "height": 720, "scale": 1.0, "disabled": true}
]`

func fakeRunner(outputs map[string]string) func(context.Context, string, ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("query without deadline")
		}
		key := name + " " + strings.Join(args, " ")
		out, ok := outputs[key]
		if !ok {
			return nil, errors.New("unexpected command: " + key)
		}
		return []byte(out), nil
	}
}

func TestHyprlandDisplays(t *testing.T) {
	b := NewHyprlandBackend(fakeRunner(map[string]string{"hyprctl monitors -j": monitorsJSON}), time.Second)

	records, err := b.Displays(context.Background())
	if err != nil {
		t.Fatalf("Displays: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 enabled monitors, got %d", len(records))
	}
	if records[0].Name != "DP-1" || records[0].X != 866 || records[0].Scale != 1.6 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Name != "HDMI-A-1" || records[1].Width != 1920 {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestHyprlandDisplaysRejectsBadJSON(t *testing.T) {
	b := NewHyprlandBackend(fakeRunner(map[string]string{"hyprctl monitors -j": "not json"}), time.Second)
	if _, err := b.Displays(context.Background()); err == nil {
		t.Fatalf("expected JSON error")
	}
}

func TestHyprlandCursorPosition(t *testing.T) {
	b := NewHyprlandBackend(fakeRunner(map[string]string{"hyprctl cursorpos": "4000, 720\n"}), time.Second)

	p, err := b.CursorPosition(context.Background())
	if err != nil {
		t.Fatalf("CursorPosition: %v", err)
	}
	if p.X != 4000 || p.Y != 720 {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestParseCursorPosErrors(t *testing.T) {
	for _, in := range []string{"", "12", "a, 3", "1, b", "1, 2, 3"} {
		if _, err := parseCursorPos([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestHyprlandCommandFailure(t *testing.T) {
	b := NewHyprlandBackend(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("boom")
	}, 0)
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure")
	}
	if b.timeout != defaultQueryTimeout {
		t.Fatalf("expected default timeout, got %v", b.timeout)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(context.Background(), Kind("wayfire"), time.Second); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
