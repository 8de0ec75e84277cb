package keystroke

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sunmonlok/sunmonlok/internal/x11"
)

var functionKey = regexp.MustCompile(`^[fF]([0-9]{1,2})$`)

// X11Action presses modifiers+key through XTest on the local display.
type X11Action struct {
	conn      *x11.Connection
	modifiers []xproto.Keycode
	keys      []xproto.Keycode
	names     []string
}

// NewX11Action resolves every configured key up front so a bad
// configuration fails at startup rather than on the first event.
func NewX11Action(modifiers, keys []string) (*X11Action, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	a := &X11Action{conn: conn, names: append([]string(nil), keys...)}

	for _, m := range modifiers {
		sym, ok := x11.ModifierKeysym(m)
		if !ok {
			conn.Close()
			return nil, fmt.Errorf("unknown modifier %q", m)
		}
		code, err := conn.Keycode(sym)
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.modifiers = append(a.modifiers, code)
	}
	for _, k := range keys {
		code, err := conn.Keycode(KeysymName(k))
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.keys = append(a.keys, code)
	}
	return a, nil
}

func (a *X11Action) Name() string { return "x11" }

func (a *X11Action) Switch(_ context.Context, index int) error {
	if _, err := KeyForIndex(a.names, index); err != nil {
		return err
	}
	return a.conn.PressChord(a.modifiers, a.keys[index])
}

func (a *X11Action) Close() error {
	a.conn.Close()
	return nil
}

// KeysymName normalizes user-facing key names: "f3" becomes "F3"; other
// names pass through.
func KeysymName(key string) string {
	key = strings.TrimSpace(key)
	if m := functionKey.FindStringSubmatch(key); m != nil {
		return "F" + m[1]
	}
	return key
}
