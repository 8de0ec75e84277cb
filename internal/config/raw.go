package config

// RawConfig mirrors the YAML file. Pointer fields distinguish "unset" from
// zero values so the file only overrides what it names.
type RawConfig struct {
	PollInterval    *string  `yaml:"poll_interval,omitempty"`
	MoveThreshold   *float64 `yaml:"move_threshold,omitempty"`
	Debounce        *string  `yaml:"debounce,omitempty"`
	RefreshCooldown *string  `yaml:"refresh_cooldown,omitempty"`

	ServerBind      *string `yaml:"server_bind,omitempty"`
	ServerPort      *int    `yaml:"server_port,omitempty"`
	WebsocketListen *string `yaml:"websocket_listen,omitempty"`

	Backend      *string `yaml:"backend,omitempty"`
	QueryTimeout *string `yaml:"query_timeout,omitempty"`

	RefreshHotkey *string `yaml:"refresh_hotkey,omitempty"`

	Sunshine *RawSunshineConfig `yaml:"sunshine,omitempty"`
	Client   *RawClientConfig   `yaml:"client,omitempty"`

	Debug *bool `yaml:"debug,omitempty"`
}

type RawSunshineConfig struct {
	Journal      *bool    `yaml:"journal,omitempty"`
	JournalLines *int     `yaml:"journal_lines,omitempty"`
	LogFiles     []string `yaml:"log_files,omitempty"`
}

type RawClientConfig struct {
	Host           *string  `yaml:"host,omitempty"`
	Port           *int     `yaml:"port,omitempty"`
	ReconnectDelay *string  `yaml:"reconnect_delay,omitempty"`
	Action         *string  `yaml:"action,omitempty"`
	Command        []string `yaml:"command,omitempty"`
	Modifiers      []string `yaml:"modifiers,omitempty"`
	Keys           []string `yaml:"keys,omitempty"`
}

// ToRaw renders an effective config back into its file form.
func (c *Config) ToRaw() RawConfig {
	str := func(s string) *string { return &s }
	dur := func(d interface{ String() string }) *string { return str(d.String()) }
	threshold := c.MoveThreshold
	port := c.ServerPort
	debug := c.Debug
	journal := c.Sunshine.Journal
	lines := c.Sunshine.JournalLines
	clientPort := c.Client.Port

	return RawConfig{
		PollInterval:    dur(c.PollInterval),
		MoveThreshold:   &threshold,
		Debounce:        dur(c.Debounce),
		RefreshCooldown: dur(c.RefreshCooldown),
		ServerBind:      str(c.ServerBind),
		ServerPort:      &port,
		WebsocketListen: str(c.WebsocketListen),
		Backend:         str(c.Backend),
		QueryTimeout:    dur(c.QueryTimeout),
		RefreshHotkey:   str(c.RefreshHotkey),
		Sunshine: &RawSunshineConfig{
			Journal:      &journal,
			JournalLines: &lines,
			LogFiles:     append([]string(nil), c.Sunshine.LogFiles...),
		},
		Client: &RawClientConfig{
			Host:           str(c.Client.Host),
			Port:           &clientPort,
			ReconnectDelay: dur(c.Client.ReconnectDelay),
			Action:         str(c.Client.Action),
			Command:        append([]string(nil), c.Client.Command...),
			Modifiers:      append([]string(nil), c.Client.Modifiers...),
			Keys:           append([]string(nil), c.Client.Keys...),
		},
		Debug: &debug,
	}
}
