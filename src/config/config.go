package config

import (
	"fmt"
	"os"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
	"github.com/naikprasanna/Plant-Monitoring/src/utils"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the zero-valued tuning knobs so a minimal config file
// stays minimal.
func (c *Config) applyDefaults() {
	if c.Chart.RetentionWindowMs <= 0 {
		c.Chart.RetentionWindowMs = utils.DefaultRetentionWindowMs
	}
	if c.Chart.BufferMarginMs <= 0 {
		c.Chart.BufferMarginMs = utils.DefaultBufferMarginMs
	}
	if c.Chart.MaxPoints <= 0 {
		c.Chart.MaxPoints = utils.DefaultMaxPoints
	}
	if c.Chart.MaxRenderPoints <= 0 {
		c.Chart.MaxRenderPoints = utils.DefaultMaxRenderPoints
	}
	if c.Chart.DebounceMs <= 0 {
		c.Chart.DebounceMs = utils.DefaultDebounceMs
	}
	if c.Chart.AutoScrollEpsilonMs <= 0 {
		c.Chart.AutoScrollEpsilonMs = utils.DefaultAutoScrollEpsilonMs
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = utils.DefaultCacheEntries
	}
	if c.Cache.MaxBytes <= 0 {
		c.Cache.MaxBytes = utils.DefaultCacheBytes
	}
	if c.Feed.SourceType == "" {
		c.Feed.SourceType = "simulator"
	}
	if c.Feed.IntervalMs <= 0 {
		c.Feed.IntervalMs = 1000
	}
	if c.Feed.PeriodMs <= 0 {
		c.Feed.PeriodMs = 60_000
	}
	if c.Feed.RingCapacity <= 0 {
		c.Feed.RingCapacity = utils.DefaultRingCapacity
	}
	if c.History.ProviderType == "" {
		c.History.ProviderType = "sqlite"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Sensor configuration
	if c.Sensor.ID == "" {
		return fmt.Errorf("sensor id cannot be empty")
	}
	if c.Sensor.SpikesEnabled {
		// Thresholds must be disjoint around zero so a single reading can
		// never sit on both sides.
		if c.Sensor.UpperThreshold <= 0 {
			return fmt.Errorf("upper threshold must be positive, got %.2f", c.Sensor.UpperThreshold)
		}
		if c.Sensor.LowerThreshold >= 0 {
			return fmt.Errorf("lower threshold must be negative, got %.2f", c.Sensor.LowerThreshold)
		}
	}

	// Validate Chart configuration
	if c.Chart.MaxRenderPoints > c.Chart.MaxPoints {
		return fmt.Errorf("max render points (%d) cannot exceed max points (%d)", c.Chart.MaxRenderPoints, c.Chart.MaxPoints)
	}

	// Validate History configuration
	switch c.History.ProviderType {
	case "http":
		if c.History.BaseURL == "" {
			return fmt.Errorf("history base url cannot be empty for the http provider")
		}
	case "sqlite":
		if c.History.DBPath == "" {
			return fmt.Errorf("history db path cannot be empty for the sqlite provider")
		}
	case "postgres":
		if c.History.DBConnectionString == "" {
			return fmt.Errorf("history connection string cannot be empty for the postgres provider")
		}
	default:
		return fmt.Errorf("unknown history provider type: '%s'", c.History.ProviderType)
	}

	// Validate Feed configuration
	switch c.Feed.SourceType {
	case "simulator":
		if c.Feed.Amplitude < 0 {
			return fmt.Errorf("simulator amplitude cannot be negative")
		}
	case "websocket":
		if c.Feed.URL == "" {
			return fmt.Errorf("feed url cannot be empty for the websocket source")
		}
	case "mqtt":
		if c.Feed.Broker == "" || c.Feed.Topic == "" {
			return fmt.Errorf("feed broker and topic cannot be empty for the mqtt source")
		}
	case "kafka":
		if len(c.Feed.Brokers) == 0 || c.Feed.Topic == "" {
			return fmt.Errorf("feed brokers and topic cannot be empty for the kafka source")
		}
	default:
		return fmt.Errorf("unknown feed source type: '%s'", c.Feed.SourceType)
	}

	// Validate Network configuration (http provider only)
	if c.History.ProviderType == "http" {
		if c.Network.RequestTimeout <= 0 {
			return fmt.Errorf("request timeout must be greater than 0")
		}
		if c.Network.MaxRetries < 0 {
			return fmt.Errorf("max retries cannot be negative")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
