package sunshine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_FirstUsableSourceWins(t *testing.T) {
	broken := StaticSource{Label: "broken", Data: "no markers here"}
	good := StaticSource{Label: "good", Data: journalSample}
	never := StaticSource{Label: "never", Data: StartSentinel + "\nMonitor 0 is X-1\n" + EndSentinel}

	table, src, err := Load(context.Background(), broken, good, never)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if src != "good" {
		t.Fatalf("source = %q, want good", src)
	}
	if idx, ok := table.Lookup("DP-1"); !ok || idx != 1 {
		t.Fatalf("DP-1 = %d, %v", idx, ok)
	}
}

func TestLoad_AllSourcesFail(t *testing.T) {
	_, _, err := Load(context.Background(), StaticSource{Data: ""}, FileSource{})
	if !errors.Is(err, ErrNoMapping) {
		t.Fatalf("expected ErrNoMapping, got %v", err)
	}
	if _, _, err := Load(context.Background()); !errors.Is(err, ErrNoMapping) {
		t.Fatalf("expected ErrNoMapping with no sources, got %v", err)
	}
}

func TestJournalSource_RunsJournalctl(t *testing.T) {
	var gotName string
	var gotArgs []string
	src := JournalSource{
		Lines: 50,
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return []byte(journalSample), nil
		},
	}
	text, err := src.Text(context.Background())
	if err != nil {
		t.Fatalf("Text error: %v", err)
	}
	if gotName != "journalctl" || strings.Join(gotArgs, " ") != "-xe --no-pager -n 50" {
		t.Fatalf("unexpected command %s %v", gotName, gotArgs)
	}
	if !strings.Contains(text, StartSentinel) {
		t.Fatal("expected journal output to be returned")
	}
}

func TestJournalSource_Failure(t *testing.T) {
	src := JournalSource{Run: func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}
	if _, err := src.Text(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileSource_FirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.log")
	present := filepath.Join(dir, "sunshine.log")
	if err := os.WriteFile(present, []byte(journalSample), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := FileSource{Paths: []string{missing, present}}.Text(context.Background())
	if err != nil {
		t.Fatalf("Text error: %v", err)
	}
	if text != journalSample {
		t.Fatal("unexpected file content")
	}

	if _, err := (FileSource{Paths: []string{missing}}).Text(context.Background()); err == nil {
		t.Fatal("expected error when no file exists")
	}
}

func TestDefaultLogFiles_IncludesSystemLocations(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	paths := DefaultLogFiles()
	want := []string{
		"/home/tester/.local/share/sunshine/sunshine.log",
		"/home/tester/.config/sunshine/sunshine.log",
		"/var/log/sunshine/sunshine.log",
		"/tmp/sunshine.log",
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("DefaultLogFiles() = %v, want %v", paths, want)
	}
}
