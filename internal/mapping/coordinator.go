// Package mapping turns pointer positions into Sunshine target indices.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/geometry"
	"github.com/sunmonlok/sunmonlok/internal/sunshine"
)

var (
	// ErrNoDisplayAtPoint means the point lies in a gap between displays.
	ErrNoDisplayAtPoint = errors.New("no display at point")
	// ErrUnknownDisplay means the located display is absent from the log
	// table. Resolve recovers from it; it is exported for status reporting.
	ErrUnknownDisplay = errors.New("display not in sunshine mapping")
)

// DefaultRefreshCooldown is the minimum time between non-forced refreshes.
const DefaultRefreshCooldown = 10 * time.Second

// Strategy says how an index was assigned.
type Strategy int

const (
	// StrategyLogDerived uses the order Sunshine logged.
	StrategyLogDerived Strategy = iota
	// StrategyPositionBased ranks displays left to right.
	StrategyPositionBased
)

func (s Strategy) String() string {
	switch s {
	case StrategyLogDerived:
		return "log-derived"
	case StrategyPositionBased:
		return "position-based"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// DisplaySource reports the current compositor layout.
type DisplaySource interface {
	Displays(ctx context.Context) ([]geometry.Record, error)
}

// TableLoader produces a fresh name to index table and the name of the log
// source it came from.
type TableLoader func(ctx context.Context) (*sunshine.Table, string, error)

type Options struct {
	RefreshCooldown time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Index    int
	Display  string
	Strategy Strategy
}

// State is a point-in-time copy of the coordinator's mapping state.
type State struct {
	Table       *sunshine.Table
	Source      string
	Records     []geometry.Record
	LastRefresh time.Time
	Fallback    bool
	Refreshes   int
	LastError   string
}

// Coordinator owns the mapping state for one running server.
type Coordinator struct {
	displays DisplaySource
	load     TableLoader
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// refreshMu serializes refresh attempts; mu guards the fields below.
	refreshMu sync.Mutex
	mu        sync.Mutex

	table       *sunshine.Table
	source      string
	records     []geometry.Record
	layoutKey   string
	lastRefresh time.Time
	fallback    bool
	refreshes   int
	lastErr     error
}

// New builds a coordinator and performs the initial log parse. A failed
// parse leaves the coordinator in fallback mode.
func New(ctx context.Context, displays DisplaySource, load TableLoader, opts Options) *Coordinator {
	c := &Coordinator{
		displays: displays,
		load:     load,
		cooldown: opts.RefreshCooldown,
		logger:   opts.Logger,
		now:      opts.Now,
		fallback: true,
	}
	if c.cooldown <= 0 {
		c.cooldown = DefaultRefreshCooldown
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.Refresh(ctx, true)
	return c
}

// Resolve maps a point to a target index. Geometry is queried on every
// call. Errors are limited to failed geometry queries and ErrNoDisplayAtPoint;
// a display missing from the log table degrades to position ranking.
func (c *Coordinator) Resolve(ctx context.Context, p geometry.Point) (Resolution, error) {
	records, err := c.displays.Displays(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("query displays: %w", err)
	}
	ix := geometry.NewIndex(records)
	c.observeLayout(ix)

	name, ok := ix.Locate(p)
	if !ok {
		return Resolution{}, fmt.Errorf("%w %s", ErrNoDisplayAtPoint, p)
	}

	c.mu.Lock()
	table, fallback := c.table, c.fallback
	c.mu.Unlock()

	if !fallback {
		if idx, ok := table.Lookup(name); ok {
			return Resolution{Index: idx, Display: name, Strategy: StrategyLogDerived}, nil
		}
		c.logger.Warn("display not in sunshine mapping, refreshing", "display", name)
		c.Refresh(ctx, false)

		c.mu.Lock()
		table = c.table
		c.mu.Unlock()
		if idx, ok := table.Lookup(name); ok {
			c.logger.Info("display found after refresh", "display", name, "index", idx)
			return Resolution{Index: idx, Display: name, Strategy: StrategyLogDerived}, nil
		}
		c.logger.Warn("display still unknown, using position ranking", "display", name)
	}

	idx, ok := PositionRank(ix.Records(), name)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownDisplay, name)
	}
	return Resolution{Index: idx, Display: name, Strategy: StrategyPositionBased}, nil
}

// Refresh re-reads the Sunshine log when force is set or the cooldown has
// elapsed. It reports whether a new table was installed. A failed attempt
// keeps the previous table and still restarts the cooldown.
func (c *Coordinator) Refresh(ctx context.Context, force bool) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	now := c.now()
	c.mu.Lock()
	last := c.lastRefresh
	attempted := c.refreshes > 0
	c.mu.Unlock()

	if !force && attempted && now.Sub(last) < c.cooldown {
		c.logger.Debug("skipping mapping refresh", "cooldown", c.cooldown, "since_last", now.Sub(last))
		return false
	}

	table, source, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRefresh = now
	c.refreshes++
	if err != nil {
		c.lastErr = err
		if c.table == nil {
			c.fallback = true
			c.logger.Warn("no sunshine mapping available, using position-based fallback", "error", err)
		} else {
			c.logger.Warn("mapping refresh failed, keeping previous table", "error", err)
		}
		return false
	}

	c.lastErr = nil
	changed := !table.Equal(c.table)
	c.table = table
	c.source = source
	c.fallback = false
	if changed {
		c.logger.Info("sunshine mapping loaded", "source", source, "mapping", describeTable(table))
	} else {
		c.logger.Debug("sunshine mapping unchanged", "source", source)
	}
	return true
}

// Assign reports the index name would get within records under the current
// mapping, without refreshing. It backs status reporting.
func (c *Coordinator) Assign(records []geometry.Record, name string) (Resolution, bool) {
	c.mu.Lock()
	table, fallback := c.table, c.fallback
	c.mu.Unlock()

	if !fallback {
		if idx, ok := table.Lookup(name); ok {
			return Resolution{Index: idx, Display: name, Strategy: StrategyLogDerived}, true
		}
	}
	idx, ok := PositionRank(records, name)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Index: idx, Display: name, Strategy: StrategyPositionBased}, true
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Table:       c.table,
		Source:      c.source,
		Records:     append([]geometry.Record(nil), c.records...),
		LastRefresh: c.lastRefresh,
		Fallback:    c.fallback,
		Refreshes:   c.refreshes,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// Strategy reports the global strategy currently in effect.
func (c *Coordinator) Strategy() Strategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallback {
		return StrategyPositionBased
	}
	return StrategyLogDerived
}

func (c *Coordinator) observeLayout(ix *geometry.Index) {
	records := ix.Records()
	key := layoutKey(records)

	c.mu.Lock()
	changed := key != c.layoutKey
	c.layoutKey = key
	c.records = records
	c.mu.Unlock()

	if !changed {
		return
	}
	c.logger.Debug("display layout changed", "displays", len(records))
	for _, o := range ix.Overlaps() {
		c.logger.Warn("display bounds overlap, first listed display wins", "first", o.A, "second", o.B)
	}
}

// PositionRank returns name's rank when displays are ordered left to right
// by effective x origin, ties broken by name.
func PositionRank(records []geometry.Record, name string) (int, bool) {
	sorted := append([]geometry.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := sorted[i].Bounds().Left, sorted[j].Bounds().Left
		if li != lj {
			return li < lj
		}
		return sorted[i].Name < sorted[j].Name
	})
	for i, r := range sorted {
		if r.Name == name {
			return i, true
		}
	}
	return 0, false
}

func layoutKey(records []geometry.Record) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s@%d,%d:%dx%d*%g;", r.Name, r.X, r.Y, r.Width, r.Height, r.Scale)
	}
	return b.String()
}

func describeTable(t *sunshine.Table) string {
	parts := make([]string, 0, t.Len())
	for _, e := range t.Entries() {
		parts = append(parts, fmt.Sprintf("%s=%d", e.Name, e.Index))
	}
	return strings.Join(parts, ", ")
}
