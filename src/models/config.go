package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Sensor   MSensorConfig  `yaml:"sensor"`
	Chart    MChartConfig   `yaml:"chart"`
	Cache    MCacheConfig   `yaml:"cache"`
	History  MHistoryConfig `yaml:"history"`
	Feed     MFeedConfig    `yaml:"feed"`
	Network  MNetworkConfig `yaml:"network"`
}

type MSensorConfig struct {
	ID             string  `yaml:"id"`
	Unit           string  `yaml:"unit"` // Optional, display only
	UpperThreshold float64 `yaml:"upper_threshold"`
	LowerThreshold float64 `yaml:"lower_threshold"`
	SpikesEnabled  bool    `yaml:"spikes_enabled"`
}

type MChartConfig struct {
	RetentionWindowMs   int64 `yaml:"retention_window_ms"`
	BufferMarginMs      int64 `yaml:"buffer_margin_ms"`
	MaxPoints           int   `yaml:"max_points"`
	MaxRenderPoints     int   `yaml:"max_render_points"`
	DebounceMs          int   `yaml:"debounce_ms"`
	AutoScrollEpsilonMs int64 `yaml:"auto_scroll_epsilon_ms"`
	PrefetchEnabled     bool  `yaml:"prefetch_enabled"`
}

type MCacheConfig struct {
	MaxEntries int   `yaml:"max_entries"`
	MaxBytes   int64 `yaml:"max_bytes"`
}

type MHistoryConfig struct {
	ProviderType       string `yaml:"provider_type"` // "http", "sqlite" or "postgres"
	BaseURL            string `yaml:"base_url"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MFeedConfig struct {
	SourceType string `yaml:"source_type"` // "simulator", "websocket", "mqtt" or "kafka"

	// websocket
	URL string `yaml:"url"`

	// mqtt
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`

	// kafka
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`

	// simulator
	IntervalMs   int     `yaml:"interval_ms"`
	BaseValue    float64 `yaml:"base_value"`
	Amplitude    float64 `yaml:"amplitude"`
	PeriodMs     int64   `yaml:"period_ms"`
	SpikeEveryN  int     `yaml:"spike_every_n"` // 0 disables injected spikes
	RingCapacity int     `yaml:"ring_capacity"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}
