// Package keystroke performs the client-side reaction to a target index.
package keystroke

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Action reacts to a "switch to index" event.
type Action interface {
	Name() string
	Switch(ctx context.Context, index int) error
	Close() error
}

// KeyForIndex returns the configured key for index.
func KeyForIndex(keys []string, index int) (string, error) {
	if index < 0 || index >= len(keys) {
		return "", fmt.Errorf("index %d out of range for %d configured keys", index, len(keys))
	}
	return keys[index], nil
}

// Chord renders modifiers and key as "ctrl+alt+F1".
func Chord(modifiers []string, key string) string {
	parts := append(append([]string(nil), modifiers...), key)
	return strings.Join(parts, "+")
}

// LogAction only logs what it would press.
type LogAction struct {
	Modifiers []string
	Keys      []string
	Logger    *slog.Logger
}

func (a *LogAction) Name() string { return "log" }

func (a *LogAction) Switch(_ context.Context, index int) error {
	key, err := KeyForIndex(a.Keys, index)
	if err != nil {
		return err
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("would press hotkey", "index", index, "chord", Chord(a.Modifiers, key))
	return nil
}

func (a *LogAction) Close() error { return nil }

// Runner executes a command to completion.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// CommandAction runs an argv template per event. "{index}" and "{key}" in
// any argument are replaced with the target index and its configured key.
type CommandAction struct {
	Argv []string
	Keys []string
	Run  Runner
}

func (a *CommandAction) Name() string { return "command" }

func (a *CommandAction) Switch(ctx context.Context, index int) error {
	if len(a.Argv) == 0 {
		return fmt.Errorf("no command configured")
	}
	key, err := KeyForIndex(a.Keys, index)
	if err != nil {
		return err
	}
	argv := Expand(a.Argv, index, key)
	run := a.Run
	if run == nil {
		run = execRunner
	}
	if err := run(ctx, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("command %q failed: %w", argv[0], err)
	}
	return nil
}

func (a *CommandAction) Close() error { return nil }

// Expand substitutes placeholders in a copy of argv.
func Expand(argv []string, index int, key string) []string {
	r := strings.NewReplacer("{index}", strconv.Itoa(index), "{key}", key)
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = r.Replace(arg)
	}
	return out
}
