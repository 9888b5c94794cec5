// internal/config/config.go
package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Transport   TransportConfig   `yaml:"transport"`
	Poll        PollConfig        `yaml:"poll"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Mirror      *MirrorConfig     `yaml:"mirror"` // optional, opt-in
}

// ---- QUERY ENDPOINT ----

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	Port          int    `yaml:"port"`
	ALPN          string `yaml:"alpn"`
	QueueSize     uint64 `yaml:"queue_size"`
	IdleTimeoutMs int    `yaml:"idle_timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs    int `yaml:"interval_ms"`
	DrainBudgetMs int `yaml:"drain_budget_ms"`
}

// ---- DIAGNOSTICS ----

type DiagnosticsConfig struct {
	Dir          string `yaml:"dir"`
	Pattern      string `yaml:"pattern"`
	CollectorURL string `yaml:"collector_url"`
	Format       string `yaml:"format"`
	Token        string `yaml:"token"`
	TimeoutMs    int    `yaml:"timeout_ms"` // 0 = no timeout

	// Version is normally taken from the VERSION environment variable.
	Version string `yaml:"version"`
}

// ---- STATUS MIRROR ----

type MirrorConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Address    uint16 `yaml:"address"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}
