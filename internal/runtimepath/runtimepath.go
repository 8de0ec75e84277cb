package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvSocket overrides the control socket location.
const EnvSocket = "SUNMONLOK_SOCKET"

// Dir returns the per-user runtime directory: XDG_RUNTIME_DIR, then
// /run/user/<uid>, then a private directory under /tmp.
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/sunmonlok-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the daemon control socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(EnvSocket); p != "" {
		return p, nil
	}
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "sunmonlok.sock"), nil
}
