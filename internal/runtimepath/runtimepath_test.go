package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/sunmonlok-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)
	t.Setenv(EnvSocket, "")

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if socket != filepath.Join(td, "sunmonlok.sock") {
		t.Fatalf("SocketPath() = %q", socket)
	}

	t.Setenv(EnvSocket, "/tmp/custom.sock")
	if socket, _ := SocketPath(); socket != "/tmp/custom.sock" {
		t.Fatalf("SocketPath() = %q, want override", socket)
	}
}
