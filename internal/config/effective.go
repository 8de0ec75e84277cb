package config

import (
	"fmt"
	"time"
)

// ValidationError ties a configuration problem to its YAML path and, when
// known, the file position it came from.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig overlays raw onto the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if err := setDuration(&cfg.PollInterval, raw.PollInterval, "poll_interval"); err != nil {
		return nil, err
	}
	if raw.MoveThreshold != nil {
		cfg.MoveThreshold = *raw.MoveThreshold
	}
	if err := setDuration(&cfg.Debounce, raw.Debounce, "debounce"); err != nil {
		return nil, err
	}
	if err := setDuration(&cfg.RefreshCooldown, raw.RefreshCooldown, "refresh_cooldown"); err != nil {
		return nil, err
	}
	if raw.ServerBind != nil {
		cfg.ServerBind = *raw.ServerBind
	}
	if raw.ServerPort != nil {
		cfg.ServerPort = *raw.ServerPort
	}
	if raw.WebsocketListen != nil {
		cfg.WebsocketListen = *raw.WebsocketListen
	}
	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if err := setDuration(&cfg.QueryTimeout, raw.QueryTimeout, "query_timeout"); err != nil {
		return nil, err
	}
	if raw.RefreshHotkey != nil {
		cfg.RefreshHotkey = *raw.RefreshHotkey
	}
	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}

	if s := raw.Sunshine; s != nil {
		if s.Journal != nil {
			cfg.Sunshine.Journal = *s.Journal
		}
		if s.JournalLines != nil {
			cfg.Sunshine.JournalLines = *s.JournalLines
		}
		if s.LogFiles != nil {
			cfg.Sunshine.LogFiles = append([]string(nil), s.LogFiles...)
		}
	}

	if c := raw.Client; c != nil {
		if c.Host != nil {
			cfg.Client.Host = *c.Host
		}
		if c.Port != nil {
			cfg.Client.Port = *c.Port
		}
		if err := setDuration(&cfg.Client.ReconnectDelay, c.ReconnectDelay, "client.reconnect_delay"); err != nil {
			return nil, err
		}
		if c.Action != nil {
			cfg.Client.Action = *c.Action
		}
		if c.Command != nil {
			cfg.Client.Command = append([]string(nil), c.Command...)
		}
		if c.Modifiers != nil {
			cfg.Client.Modifiers = append([]string(nil), c.Modifiers...)
		}
		if c.Keys != nil {
			cfg.Client.Keys = append([]string(nil), c.Keys...)
		}
	}

	return cfg, nil
}

func setDuration(dst *time.Duration, raw *string, path string) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return &ValidationError{Path: path, Err: fmt.Errorf("invalid duration %q", *raw)}
	}
	*dst = d
	return nil
}
