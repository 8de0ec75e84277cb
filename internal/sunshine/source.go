package sunshine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Source produces raw log text. An error means the source is unavailable.
type Source interface {
	Name() string
	Text(ctx context.Context) (string, error)
}

// CommandRunner executes a command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// JournalSource reads the tail of the systemd journal.
type JournalSource struct {
	Lines int
	Run   CommandRunner
}

func (s JournalSource) Name() string { return "journalctl" }

func (s JournalSource) Text(ctx context.Context) (string, error) {
	lines := s.Lines
	if lines <= 0 {
		lines = 1000
	}
	run := s.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, "journalctl", "-xe", "--no-pager", "-n", strconv.Itoa(lines))
	if err != nil {
		return "", fmt.Errorf("journalctl failed: %w", err)
	}
	return string(out), nil
}

// FileSource reads the first existing file from Paths.
type FileSource struct {
	Paths []string
}

func (s FileSource) Name() string { return "log file" }

func (s FileSource) Text(ctx context.Context) (string, error) {
	for _, path := range s.Paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("%s: failed to read: %w", path, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no sunshine log file found (tried %d locations)", len(s.Paths))
}

// StaticSource serves a fixed in-memory log blob.
type StaticSource struct {
	Label string
	Data  string
}

func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s StaticSource) Text(context.Context) (string, error) { return s.Data, nil }

// DefaultLogFiles returns the locations Sunshine writes its log to, most
// specific first.
func DefaultLogFiles() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".local", "share", "sunshine", "sunshine.log"),
			filepath.Join(home, ".config", "sunshine", "sunshine.log"),
		)
	}
	return append(paths,
		filepath.Join("/var", "log", "sunshine", "sunshine.log"),
		filepath.Join("/tmp", "sunshine.log"),
	)
}

// Load tries sources in priority order and returns the first table that
// parses, together with the name of the source it came from.
func Load(ctx context.Context, sources ...Source) (*Table, string, error) {
	var errs []error
	for _, src := range sources {
		text, err := src.Text(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		table, err := ParseLog(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		return table, src.Name(), nil
	}
	if len(errs) == 0 {
		return nil, "", fmt.Errorf("%w: no log sources configured", ErrNoMapping)
	}
	return nil, "", fmt.Errorf("%w: %w", ErrNoMapping, errors.Join(errs...))
}
