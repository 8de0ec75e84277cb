package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil/keybind"
)

// modifierKeysyms maps config modifier names to the keysym pressed for them.
var modifierKeysyms = map[string]string{
	"ctrl":    "Control_L",
	"control": "Control_L",
	"alt":     "Alt_L",
	"option":  "Alt_L",
	"shift":   "Shift_L",
	"super":   "Super_L",
	"cmd":     "Super_L",
	"command": "Super_L",
	"mod4":    "Super_L",
}

// ModifierKeysym resolves a modifier name (e.g. "ctrl") to its keysym.
func ModifierKeysym(name string) (string, bool) {
	sym, ok := modifierKeysyms[strings.ToLower(strings.TrimSpace(name))]
	return sym, ok
}

// Keycode resolves a keysym name such as "F3" or "Control_L".
func (c *Connection) Keycode(keysym string) (xproto.Keycode, error) {
	codes := keybind.StrToKeycodes(c.XUtil, keysym)
	if len(codes) == 0 {
		return 0, fmt.Errorf("no keycode for %q", keysym)
	}
	return codes[0], nil
}

// PressChord presses every modifier, taps key, then releases modifiers in
// reverse order, using the XTEST extension.
func (c *Connection) PressChord(modifiers []xproto.Keycode, key xproto.Keycode) error {
	conn := c.XUtil.Conn()
	if err := xtest.Init(conn); err != nil {
		return fmt.Errorf("xtest init failed: %w", err)
	}

	fake := func(eventType byte, code xproto.Keycode) error {
		return xtest.FakeInputChecked(conn, eventType, byte(code), 0, c.Root, 0, 0, 0).Check()
	}

	for _, m := range modifiers {
		if err := fake(xproto.KeyPress, m); err != nil {
			return fmt.Errorf("press modifier %d: %w", m, err)
		}
	}
	pressErr := fake(xproto.KeyPress, key)
	if pressErr == nil {
		pressErr = fake(xproto.KeyRelease, key)
	}
	for i := len(modifiers) - 1; i >= 0; i-- {
		if err := fake(xproto.KeyRelease, modifiers[i]); err != nil && pressErr == nil {
			pressErr = fmt.Errorf("release modifier %d: %w", modifiers[i], err)
		}
	}
	return pressErr
}
