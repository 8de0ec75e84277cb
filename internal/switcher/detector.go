// Package switcher decides when the pointer has moved to a different
// streaming target.
package switcher

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/mapping"
	"github.com/sunmonlok/sunmonlok/internal/protocol"
)

// PointerSource reports the current pointer position.
type PointerSource interface {
	CursorPosition(ctx context.Context) (geometry.Point, error)
}

// Resolver maps a point to a target index.
type Resolver interface {
	Resolve(ctx context.Context, p geometry.Point) (mapping.Resolution, error)
}

// Sink receives indices to deliver.
type Sink interface {
	Broadcast(index int)
}

// Config holds the detector's tuning.
type Config struct {
	PollInterval  time.Duration
	MoveThreshold float64
	Debounce      time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// Event is a switch the detector decided to emit.
type Event struct {
	Index    int
	Previous int
	Baseline bool // first resolution; Previous is meaningless
	Display  string
	Strategy mapping.Strategy
	At       time.Time
}

// Status is a snapshot of the detector state.
type Status struct {
	LastIndex    int
	HasIndex     bool
	LastEmit     time.Time
	Pending      int
	HasPending   bool
	LastPosition geometry.Point
	Emitted      int
	Suppressed   int
}

// Detector is the poll-driven switch state machine. Tick is not safe for
// concurrent use; Status may be called from any goroutine.
type Detector struct {
	pointer  PointerSource
	resolver Resolver
	sink     Sink

	interval  time.Duration
	threshold float64
	debounce  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	lastIndex  int
	hasIndex   bool
	lastEmit   time.Time
	windowOpen bool
	pending    int
	hasPending bool
	lastPos    geometry.Point
	hasPos     bool
	emitted    int
	suppressed int
}

// NewDetector creates a detector. Zero durations fall back to 200ms polling
// and a 500ms debounce.
func NewDetector(cfg Config, pointer PointerSource, resolver Resolver, sink Sink) *Detector {
	d := &Detector{
		pointer:   pointer,
		resolver:  resolver,
		sink:      sink,
		interval:  cfg.PollInterval,
		threshold: cfg.MoveThreshold,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if d.interval <= 0 {
		d.interval = 200 * time.Millisecond
	}
	if d.debounce < 0 {
		d.debounce = 0
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Run polls until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("switch detector started", "interval", d.interval, "threshold", d.threshold, "debounce", d.debounce)

	d.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("switch detector stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick performs one poll cycle.
func (d *Detector) Tick(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("switch detector panic recovered", "error", err)
		}
	}()

	p, err := d.pointer.CursorPosition(ctx)
	if err != nil {
		d.logger.Debug("failed to read pointer position", "error", err)
		return
	}
	if !d.moved(p) {
		return
	}

	res, err := d.resolver.Resolve(ctx, p)
	if err != nil {
		if errors.Is(err, mapping.ErrNoDisplayAtPoint) {
			d.logger.Debug("pointer outside all displays", "position", p.String())
		} else {
			d.logger.Warn("failed to resolve pointer position", "position", p.String(), "error", err)
		}
		return
	}

	ev, ok := d.Observe(res.Index, d.now())
	if !ok {
		return
	}
	ev.Display = res.Display
	ev.Strategy = res.Strategy
	d.emit(ev)
}

// Observe feeds one resolved index into the state machine and reports
// whether it produces an event. The first index always fires as the
// baseline without opening a debounce window. Later changes fire only when
// no switch happened within the debounce window; suppressed changes are
// dropped.
func (d *Detector) Observe(index int, now time.Time) (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasIndex {
		d.lastIndex = index
		d.hasIndex = true
		d.emitted++
		return Event{Index: index, Baseline: true, At: now}, true
	}
	if index == d.lastIndex {
		d.hasPending = false
		return Event{}, false
	}
	if d.windowOpen && now.Sub(d.lastEmit) < d.debounce {
		d.pending = index
		d.hasPending = true
		d.suppressed++
		return Event{}, false
	}

	ev := Event{Index: index, Previous: d.lastIndex, At: now}
	d.lastIndex = index
	d.lastEmit = now
	d.windowOpen = true
	d.hasPending = false
	d.emitted++
	return ev, true
}

// Status returns a copy of the detector state.
func (d *Detector) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		LastIndex:    d.lastIndex,
		HasIndex:     d.hasIndex,
		LastEmit:     d.lastEmit,
		Pending:      d.pending,
		HasPending:   d.hasPending,
		LastPosition: d.lastPos,
		Emitted:      d.emitted,
		Suppressed:   d.suppressed,
	}
}

// moved records p as the last position unless it is within the movement
// threshold of the previous one.
func (d *Detector) moved(p geometry.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasPos && math.Hypot(p.X-d.lastPos.X, p.Y-d.lastPos.Y) < d.threshold {
		return false
	}
	d.lastPos = p
	d.hasPos = true
	return true
}

func (d *Detector) emit(ev Event) {
	if ev.Index > protocol.MaxIndex {
		d.logger.Warn("target index cannot be encoded, not broadcasting", "index", ev.Index, "max", protocol.MaxIndex, "display", ev.Display)
		return
	}
	if ev.Baseline {
		d.logger.Info("initial target", "index", ev.Index, "display", ev.Display, "strategy", ev.Strategy.String())
	} else {
		d.logger.Info("switching target", "from", ev.Previous, "to", ev.Index, "display", ev.Display, "strategy", ev.Strategy.String())
	}
	d.sink.Broadcast(ev.Index)
}
