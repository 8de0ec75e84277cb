//go:build !linux

package platform

import "fmt"

// NewX11Backend is only available on Linux.
func NewX11Backend() (Backend, error) {
	return nil, fmt.Errorf("x11 backend is only supported on linux")
}
