package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Keyboard mapping is needed to turn key names into keycodes
	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
