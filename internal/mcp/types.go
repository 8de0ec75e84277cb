package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Running          bool   `json:"running"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Backend          string `json:"backend"`
	BindAddress      string `json:"bind_address"`
	WebsocketAddress string `json:"websocket_address,omitempty"`
	Listeners        int    `json:"listeners"`
	CurrentIndex     int    `json:"current_index" jsonschema:"Last broadcast target index, -1 when nothing has been broadcast yet"`
	Strategy         string `json:"strategy" jsonschema:"log-derived or position-based"`
	Emitted          int    `json:"emitted"`
	Suppressed       int    `json:"suppressed"`
}

// MappingRow is one display in the Sunshine order.
type MappingRow struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MappingOutput is the output for the get_mapping and refresh_mapping tools.
type MappingOutput struct {
	Entries     []MappingRow `json:"entries"`
	Fallback    bool         `json:"fallback" jsonschema:"True when no Sunshine log was usable and displays are ranked left to right"`
	Source      string       `json:"source,omitempty"`
	LastRefresh string       `json:"last_refresh,omitempty" jsonschema:"RFC 3339 time of the last refresh attempt"`
	LastError   string       `json:"last_error,omitempty"`
	Refreshed   bool         `json:"refreshed,omitempty"`
}

// MonitorRow describes one display as the daemon sees it.
type MonitorRow struct {
	Name     string  `json:"name"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Scale    float64 `json:"scale"`
	Left     float64 `json:"left"`
	Right    float64 `json:"right"`
	Top      float64 `json:"top"`
	Bottom   float64 `json:"bottom"`
	Index    int     `json:"index" jsonschema:"Target index, -1 when the display cannot be ranked"`
	Strategy string  `json:"strategy,omitempty"`
}

// Overlap names two displays whose effective bounds intersect.
type Overlap struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// MonitorsOutput is the output for the list_monitors tool.
type MonitorsOutput struct {
	Monitors []MonitorRow `json:"monitors"`
	Overlaps []Overlap    `json:"overlaps,omitempty"`
}
