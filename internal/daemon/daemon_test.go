package daemon

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/config"
	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/ipc"
	"github.com/sunmonlok/sunmonlok/internal/sunshine"
)

const sunshineLog = `[2024:01:01:10:00:00]: Info: Start of Wayland monitor list
[2024:01:01:10:00:00]: Info: Monitor 0 is HDMI-A-1: LG ULTRAGEAR
[2024:01:01:10:00:00]: Info: Monitor 1 is DP-1: DELL U2720Q
[2024:01:01:10:00:00]: Info: End of Wayland monitor list
`

type fakeBackend struct {
	mu      sync.Mutex
	pointer geometry.Point
	records []geometry.Record
	closed  bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) CursorPosition(context.Context) (geometry.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pointer, nil
}

func (f *fakeBackend) Displays(context.Context) ([]geometry.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]geometry.Record(nil), f.records...), nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func newTestDaemon(t *testing.T, backend *fakeBackend, sources []sunshine.Source, socket string) *Daemon {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ServerBind = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.PollInterval = 10 * time.Millisecond

	d, err := New(context.Background(), Options{
		Config:     cfg,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Backend:    backend,
		Sources:    sources,
		SocketPath: socket,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func testBackend() *fakeBackend {
	return &fakeBackend{
		pointer: geometry.Point{X: 4000, Y: 720},
		records: []geometry.Record{
			{ID: 0, Name: "DP-1", X: 866, Y: 0, Width: 2560, Height: 1440, Scale: 1.6},
			{ID: 1, Name: "HDMI-A-1", X: 3426, Y: 0, Width: 2560, Height: 1440, Scale: 1.6},
		},
	}
}

func waitForAddr(t *testing.T, d *Daemon) net.Addr {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := d.Addr(); addr != nil {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("broadcast server never started")
	return nil
}

func TestDaemon_EndToEnd(t *testing.T) {
	backend := testBackend()
	socket := filepath.Join(t.TempDir(), "sunmonlok.sock")
	d := newTestDaemon(t, backend, []sunshine.Source{sunshine.StaticSource{Label: "test", Data: sunshineLog}}, socket)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	addr := waitForAddr(t, d)
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf[0] != 0 {
		t.Fatalf("pointer on HDMI-A-1 should map to index 0, got %d", buf[0])
	}

	backend.mu.Lock()
	backend.pointer = geometry.Point{X: 1000, Y: 100}
	backend.mu.Unlock()
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf[0] != 1 {
		t.Fatalf("pointer on DP-1 should map to index 1, got %d", buf[0])
	}

	client := ipc.NewClientAt(socket)
	st, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Listeners != 1 || st.LastIndex == nil || *st.LastIndex != 1 || st.Strategy != "log-derived" {
		t.Fatalf("unexpected status: %+v", st)
	}

	mons, err := client.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors: %v", err)
	}
	if len(mons.Monitors) != 2 || mons.Monitors[0].Right != 2466 || *mons.Monitors[1].Index != 0 {
		t.Fatalf("unexpected monitors: %+v", mons)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if !backend.closed {
		t.Fatalf("backend should be closed on shutdown")
	}
}

func TestDaemon_FallbackWithoutLog(t *testing.T) {
	d := newTestDaemon(t, testBackend(), []sunshine.Source{sunshine.StaticSource{Data: "nothing here"}}, "-")

	m := d.Mapping()
	if !m.Fallback || len(m.Entries) != 0 || m.LastError == "" {
		t.Fatalf("expected fallback mapping: %+v", m)
	}

	mons, err := d.Monitors(context.Background())
	if err != nil {
		t.Fatalf("Monitors: %v", err)
	}
	if *mons.Monitors[0].Index != 0 || mons.Monitors[0].Strategy != "position-based" {
		t.Fatalf("expected position ranking: %+v", mons.Monitors[0])
	}

	if _, err := d.RefreshMapping(context.Background()); err == nil || !strings.Contains(err.Error(), "no") {
		t.Fatalf("expected refresh error without any table, got %v", err)
	}
}

func TestDaemon_BindFailureIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	d := newTestDaemon(t, testBackend(), []sunshine.Source{sunshine.StaticSource{Data: sunshineLog}}, "-")
	d.cfg.ServerPort = ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Run(ctx); err == nil {
		t.Fatalf("expected bind failure")
	}
}

func TestLogSources(t *testing.T) {
	sources := LogSources(config.SunshineConfig{Journal: true, JournalLines: 10, LogFiles: []string{"/tmp/x.log"}})
	if len(sources) != 2 || sources[0].Name() != "journalctl" {
		t.Fatalf("unexpected sources: %v", sources)
	}
	if got := LogSources(config.SunshineConfig{}); len(got) != 0 {
		t.Fatalf("expected no sources, got %v", got)
	}
}
