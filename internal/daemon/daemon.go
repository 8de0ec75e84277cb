// Package daemon wires the host side together: compositor backend, mapping
// coordinator, switch detector, broadcast server and control socket.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/broadcast"
	"github.com/sunmonlok/sunmonlok/internal/config"
	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/hotkeys"
	"github.com/sunmonlok/sunmonlok/internal/ipc"
	"github.com/sunmonlok/sunmonlok/internal/mapping"
	"github.com/sunmonlok/sunmonlok/internal/platform"
	"github.com/sunmonlok/sunmonlok/internal/sunshine"
	"github.com/sunmonlok/sunmonlok/internal/switcher"
	"github.com/sunmonlok/sunmonlok/internal/x11"
)

const shutdownTimeout = 3 * time.Second

type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// Backend overrides the configured compositor backend.
	Backend platform.Backend
	// Sources overrides the configured Sunshine log sources.
	Sources []sunshine.Source
	// SocketPath overrides the control socket location. "-" disables it.
	SocketPath string
}

// Daemon is one running sunmonlok server.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	backend    platform.Backend
	coord      *mapping.Coordinator
	detector   *switcher.Detector
	server     *broadcast.Server
	socketPath string
	started    time.Time
}

var _ ipc.Provider = (*Daemon)(nil)

// New opens the backend and performs the initial mapping parse.
func New(ctx context.Context, opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend := opts.Backend
	if backend == nil {
		b, err := platform.Open(ctx, platform.Kind(cfg.Backend), cfg.QueryTimeout)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	logger.Info("compositor backend selected", "backend", backend.Name())

	sources := opts.Sources
	if sources == nil {
		sources = LogSources(cfg.Sunshine)
	}
	timeout := cfg.QueryTimeout
	loader := func(ctx context.Context) (*sunshine.Table, string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return sunshine.Load(ctx, sources...)
	}

	coord := mapping.New(ctx, backend, loader, mapping.Options{
		RefreshCooldown: cfg.RefreshCooldown,
		Logger:          logger.With("component", "mapping"),
	})
	server := broadcast.NewServer(broadcast.Config{Logger: logger.With("component", "broadcast")})
	detector := switcher.NewDetector(switcher.Config{
		PollInterval:  cfg.PollInterval,
		MoveThreshold: cfg.MoveThreshold,
		Debounce:      cfg.Debounce,
		Logger:        logger.With("component", "switcher"),
	}, backend, coord, server)

	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		backend:    backend,
		coord:      coord,
		detector:   detector,
		server:     server,
		socketPath: opts.SocketPath,
		started:    time.Now(),
	}, nil
}

// LogSources builds the Sunshine log sources in priority order.
func LogSources(cfg config.SunshineConfig) []sunshine.Source {
	var sources []sunshine.Source
	if cfg.Journal {
		sources = append(sources, sunshine.JournalSource{Lines: cfg.JournalLines})
	}
	if len(cfg.LogFiles) > 0 {
		sources = append(sources, sunshine.FileSource{Paths: cfg.LogFiles})
	}
	return sources
}

// Run starts the endpoints and polls until ctx is cancelled. Failing to
// bind the broadcast or websocket endpoint is fatal.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.backend.Close()

	if err := d.server.Start(d.cfg.ServerBind, d.cfg.ServerPort); err != nil {
		return err
	}
	defer d.stopServer()

	if d.cfg.WebsocketListen != "" {
		if err := d.server.StartWebsocket(d.cfg.WebsocketListen); err != nil {
			return err
		}
	}

	if d.socketPath != "-" {
		var ipcServer *ipc.Server
		if d.socketPath != "" {
			ipcServer = ipc.NewServerAt(d.socketPath, d)
		} else if s, err := ipc.NewServer(d); err == nil {
			ipcServer = s
		} else {
			d.logger.Warn("control socket disabled", "error", err)
		}
		if ipcServer != nil {
			if err := ipcServer.Start(); err != nil {
				d.logger.Warn("control socket disabled", "error", err)
			} else {
				defer ipcServer.Stop()
			}
		}
	}

	d.startHotkey(ctx)
	d.logLayout(ctx)
	d.detector.Run(ctx)
	return nil
}

// startHotkey grabs the refresh hotkey on the X display. Failure only
// disables the hotkey.
func (d *Daemon) startHotkey(ctx context.Context) {
	seq := d.cfg.RefreshHotkey
	if seq == "" {
		return
	}
	conn, err := x11.NewConnection()
	if err != nil {
		d.logger.Warn("refresh hotkey disabled", "error", err)
		return
	}
	h := hotkeys.NewHandler(conn, d.logger.With("component", "hotkeys"))
	if err := h.RegisterFunc(seq, func() {
		if d.coord.Refresh(ctx, true) {
			d.logger.Info("mapping refreshed from hotkey")
		}
	}); err != nil {
		conn.Close()
		d.logger.Warn("refresh hotkey disabled", "error", err)
		return
	}
	d.logger.Info("refresh hotkey registered", "keys", seq)
	go h.Run(ctx)
}

func (d *Daemon) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Stop(ctx); err != nil {
		d.logger.Warn("broadcast server shutdown incomplete", "error", err)
	}
}

// Addr returns the bound broadcast address once Run has started it.
func (d *Daemon) Addr() net.Addr {
	return d.server.Addr()
}

func (d *Daemon) logLayout(ctx context.Context) {
	records, err := d.backend.Displays(ctx)
	if err != nil {
		d.logger.Warn("failed to query display layout", "error", err)
		return
	}
	if len(records) == 0 {
		d.logger.Warn("compositor reported no displays")
		return
	}
	for _, r := range records {
		b := r.Bounds()
		res, _ := d.coord.Assign(records, r.Name)
		d.logger.Info("display detected",
			"name", r.Name,
			"x_range", fmt.Sprintf("[%g, %g)", b.Left, b.Right),
			"y_range", fmt.Sprintf("[%g, %g)", b.Top, b.Bottom),
			"scale", r.Scale,
			"index", res.Index,
			"strategy", res.Strategy.String())
	}
	for _, o := range geometry.NewIndex(records).Overlaps() {
		d.logger.Warn("display bounds overlap", "first", o.A, "second", o.B)
	}
}

// Status implements ipc.Provider.
func (d *Daemon) Status() ipc.StatusData {
	st := d.detector.Status()
	data := ipc.StatusData{
		UptimeSeconds: int64(time.Since(d.started).Seconds()),
		Backend:       d.backend.Name(),
		Listeners:     d.server.ListenerCount(),
		Strategy:      d.coord.Strategy().String(),
		Emitted:       st.Emitted,
		Suppressed:    st.Suppressed,
	}
	if addr := d.server.Addr(); addr != nil {
		data.BindAddress = addr.String()
	}
	if addr := d.server.WebsocketAddr(); addr != nil {
		data.WebsocketAddress = addr.String()
	}
	if idx, ok := d.server.LastIndex(); ok {
		data.LastIndex = &idx
	}
	return data
}

// Mapping implements ipc.Provider.
func (d *Daemon) Mapping() ipc.MappingData {
	return mappingData(d.coord.Snapshot())
}

func mappingData(st mapping.State) ipc.MappingData {
	data := ipc.MappingData{
		Entries:     []ipc.MappingEntry{},
		Fallback:    st.Fallback,
		Source:      st.Source,
		LastRefresh: st.LastRefresh,
		Refreshes:   st.Refreshes,
		LastError:   st.LastError,
	}
	for _, e := range st.Table.Entries() {
		data.Entries = append(data.Entries, ipc.MappingEntry{
			Index:       e.Index,
			Name:        e.Name,
			Reported:    e.Reported,
			Description: e.Description,
		})
	}
	return data
}

// Monitors implements ipc.Provider.
func (d *Daemon) Monitors(ctx context.Context) (ipc.MonitorsData, error) {
	records, err := d.backend.Displays(ctx)
	if err != nil {
		return ipc.MonitorsData{}, fmt.Errorf("query displays: %w", err)
	}
	data := ipc.MonitorsData{Monitors: make([]ipc.MonitorInfo, 0, len(records))}
	for _, r := range records {
		b := r.Bounds()
		info := ipc.MonitorInfo{
			ID: r.ID, Name: r.Name,
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Scale: r.Scale,
			Left: b.Left, Top: b.Top, Right: b.Right, Bottom: b.Bottom,
		}
		if res, ok := d.coord.Assign(records, r.Name); ok {
			idx := res.Index
			info.Index = &idx
			info.Strategy = res.Strategy.String()
		}
		data.Monitors = append(data.Monitors, info)
	}
	for _, o := range geometry.NewIndex(records).Overlaps() {
		data.Overlaps = append(data.Overlaps, [2]string{o.A, o.B})
	}
	return data, nil
}

// RefreshMapping implements ipc.Provider.
func (d *Daemon) RefreshMapping(ctx context.Context) (ipc.RefreshData, error) {
	refreshed := d.coord.Refresh(ctx, true)
	st := d.coord.Snapshot()
	if !refreshed && st.LastError != "" && st.Table == nil {
		return ipc.RefreshData{}, errors.New(st.LastError)
	}
	return ipc.RefreshData{Refreshed: refreshed, Mapping: mappingData(st)}, nil
}
