package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/sunmonlok/sunmonlok/internal/x11"
)

// Handler manages global keyboard shortcuts on the X11 root window.
type Handler struct {
	conn   *x11.Connection
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler takes ownership of conn; Run closes it.
func NewHandler(conn *x11.Connection, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{conn: conn, logger: logger}
}

// RegisterFunc grabs keySequence (e.g. "Control-Mod1-r") and runs callback
// on every press.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.logger.Debug("hotkey pressed", "keys", keySequence)
		callback()
	}).Connect(h.conn.XUtil, h.conn.Root, keySequence, true)
	if err != nil {
		return fmt.Errorf("failed to grab %q: %w", keySequence, err)
	}
	return nil
}

// Run dispatches X events until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		xevent.Main(h.conn.XUtil)
	}()

	select {
	case <-ctx.Done():
	case <-done:
		h.logger.Warn("hotkey event loop exited")
	}
	xevent.Quit(h.conn.XUtil)
	h.conn.Close()
	<-done
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	base := []uint16{uint16(xproto.ModMaskLock)}
	if numLock := modMaskForKeysym(xu, "Num_Lock"); numLock != 0 {
		base = append(base, numLock)
	}
	if scrollLock := modMaskForKeysym(xu, "Scroll_Lock"); scrollLock != 0 {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the given lock masks, including
// zero, without duplicates.
func ignoreMasks(base []uint16) []uint16 {
	var locks []uint16
	seen := make(map[uint16]bool)
	for _, m := range base {
		if m != 0 && !seen[m] {
			seen[m] = true
			locks = append(locks, m)
		}
	}

	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(locks)); subset++ {
		var mask uint16
		for bit := range locks {
			if subset&(1<<bit) != 0 {
				mask |= locks[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
