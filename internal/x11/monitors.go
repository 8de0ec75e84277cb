package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display. X11 has no per-output scale, so
// geometry is already in the shared root-window coordinate space.
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	// Initialize RandR if not already done
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// PointerPosition returns the pointer location relative to the root window.
func (c *Connection) PointerPosition() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}
