package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sunmonlok/sunmonlok/internal/protocol"
	"github.com/sunmonlok/sunmonlok/internal/sunshine"
)

// Backend selection values.
const (
	BackendAuto     = "auto"
	BackendHyprland = "hyprland"
	BackendX11      = "x11"
)

// Client action values.
const (
	ActionLog     = "log"
	ActionCommand = "command"
	ActionX11     = "x11"
)

// SunshineConfig controls where the Sunshine monitor table is read from.
type SunshineConfig struct {
	Journal      bool
	JournalLines int
	LogFiles     []string
}

// ClientConfig controls the receiving side.
type ClientConfig struct {
	Host           string
	Port           int
	ReconnectDelay time.Duration
	Action         string
	// Command is an argv template; "{index}" and "{key}" are substituted.
	Command   []string
	Modifiers []string
	Keys      []string
}

// Config is the effective configuration shared by the daemon, the client and
// the CLI.
type Config struct {
	PollInterval    time.Duration
	MoveThreshold   float64
	Debounce        time.Duration
	RefreshCooldown time.Duration

	ServerBind      string
	ServerPort      int
	WebsocketListen string

	Backend      string
	QueryTimeout time.Duration

	// RefreshHotkey is an X11 key sequence that forces a mapping refresh.
	// Empty disables it.
	RefreshHotkey string

	Sunshine SunshineConfig
	Client   ClientConfig

	Debug bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:    200 * time.Millisecond,
		MoveThreshold:   1.0,
		Debounce:        500 * time.Millisecond,
		RefreshCooldown: 10 * time.Second,
		ServerBind:      "0.0.0.0",
		ServerPort:      protocol.DefaultPort,
		Backend:         BackendAuto,
		QueryTimeout:    2 * time.Second,
		Sunshine: SunshineConfig{
			Journal:      true,
			JournalLines: 1000,
			LogFiles:     sunshine.DefaultLogFiles(),
		},
		Client: ClientConfig{
			Port:           protocol.DefaultPort,
			ReconnectDelay: 5 * time.Second,
			Action:         ActionLog,
			Modifiers:      []string{"ctrl", "alt", "shift", "super"},
			Keys:           defaultKeys(),
		},
	}
}

func defaultKeys() []string {
	keys := make([]string, 0, protocol.MaxIndex+1)
	for i := 0; i <= protocol.MaxIndex; i++ {
		keys = append(keys, "F"+strconv.Itoa(i+1))
	}
	return keys
}

// ServerAddress is the TCP listen address for the broadcast server.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.ServerBind, strconv.Itoa(c.ServerPort))
}

// ClientAddress is the address the client dials.
func (c *Config) ClientAddress() string {
	return net.JoinHostPort(c.Client.Host, strconv.Itoa(c.Client.Port))
}

// KeyForIndex returns the configured key for a monitor index.
func (c *Config) KeyForIndex(index int) (string, bool) {
	if index < 0 || index >= len(c.Client.Keys) {
		return "", false
	}
	return c.Client.Keys[index], true
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be > 0")}
	}
	if c.MoveThreshold < 0 {
		return &ValidationError{Path: "move_threshold", Err: fmt.Errorf("move_threshold must be >= 0")}
	}
	if c.Debounce < 0 {
		return &ValidationError{Path: "debounce", Err: fmt.Errorf("debounce must be >= 0")}
	}
	if c.RefreshCooldown < 0 {
		return &ValidationError{Path: "refresh_cooldown", Err: fmt.Errorf("refresh_cooldown must be >= 0")}
	}
	if strings.TrimSpace(c.ServerBind) == "" {
		return &ValidationError{Path: "server_bind", Err: fmt.Errorf("server_bind must not be empty")}
	}
	if err := validatePort(c.ServerPort); err != nil {
		return &ValidationError{Path: "server_port", Err: err}
	}
	if c.WebsocketListen != "" {
		if _, _, err := net.SplitHostPort(c.WebsocketListen); err != nil {
			return &ValidationError{Path: "websocket_listen", Err: fmt.Errorf("websocket_listen must be host:port: %w", err)}
		}
	}
	switch c.Backend {
	case BackendAuto, BackendHyprland, BackendX11:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: auto, hyprland, x11")}
	}
	if c.QueryTimeout <= 0 {
		return &ValidationError{Path: "query_timeout", Err: fmt.Errorf("query_timeout must be > 0")}
	}
	if c.Sunshine.JournalLines <= 0 {
		return &ValidationError{Path: "sunshine.journal_lines", Err: fmt.Errorf("journal_lines must be > 0")}
	}
	if !c.Sunshine.Journal && len(c.Sunshine.LogFiles) == 0 {
		return &ValidationError{Path: "sunshine.log_files", Err: fmt.Errorf("log_files must not be empty when journal is disabled")}
	}
	for i, p := range c.Sunshine.LogFiles {
		if strings.TrimSpace(p) == "" {
			return &ValidationError{Path: "sunshine.log_files", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}
	return c.validateClient()
}

func (c *Config) validateClient() error {
	if err := validatePort(c.Client.Port); err != nil {
		return &ValidationError{Path: "client.port", Err: err}
	}
	if c.Client.ReconnectDelay <= 0 {
		return &ValidationError{Path: "client.reconnect_delay", Err: fmt.Errorf("reconnect_delay must be > 0")}
	}
	switch c.Client.Action {
	case ActionLog, ActionX11:
	case ActionCommand:
		if len(c.Client.Command) == 0 || strings.TrimSpace(c.Client.Command[0]) == "" {
			return &ValidationError{Path: "client.command", Err: fmt.Errorf("command is required when action is %q", ActionCommand)}
		}
	default:
		return &ValidationError{Path: "client.action", Err: fmt.Errorf("action must be one of: log, command, x11")}
	}
	if len(c.Client.Keys) == 0 {
		return &ValidationError{Path: "client.keys", Err: fmt.Errorf("keys must not be empty")}
	}
	if len(c.Client.Keys) > protocol.MaxIndex+1 {
		return &ValidationError{Path: "client.keys", Err: fmt.Errorf("at most %d keys can be addressed", protocol.MaxIndex+1)}
	}
	for i, k := range c.Client.Keys {
		if strings.TrimSpace(k) == "" {
			return &ValidationError{Path: "client.keys", Err: fmt.Errorf("key %d is empty", i)}
		}
	}
	for i, m := range c.Client.Modifiers {
		if strings.TrimSpace(m) == "" {
			return &ValidationError{Path: "client.modifiers", Err: fmt.Errorf("modifier %d is empty", i)}
		}
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
