// Package config loads simulator settings from defaults, an optional
// config file and ASTEROID_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/internal/observability"
)

// EnvPrefix prefixes every environment override, e.g. ASTEROID_LOOP_MODE.
const EnvPrefix = "ASTEROID"

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid configuration")

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig configures the simulation session.
type SessionConfig struct {
	Seed         uint64        `mapstructure:"seed"`
	StartDate    string        `mapstructure:"startDate"`
	Handoff      string        `mapstructure:"handoff"`
	BodyTable    string        `mapstructure:"bodyTable"`
	OutcomeDelay time.Duration `mapstructure:"outcomeDelay"`
	SkipStory    bool          `mapstructure:"skipStory"`
}

// LoopConfig configures the frame loop.
type LoopConfig struct {
	Mode     string        `mapstructure:"mode"`
	Tick     time.Duration `mapstructure:"tick"`
	Duration time.Duration `mapstructure:"duration"`
}

// ServerConfig holds listen addresses; an empty address disables the
// listener.
type ServerConfig struct {
	MetricsAddr string `mapstructure:"metricsAddr"`
	HealthAddr  string `mapstructure:"healthAddr"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"serviceName"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// CatalogConfig configures the NeoWs client.
type CatalogConfig struct {
	APIKey   string `mapstructure:"apiKey"`
	BaseURL  string `mapstructure:"baseURL"`
	Limit    int    `mapstructure:"limit"`
	MaxTries uint   `mapstructure:"maxTries"`
}

// Config is the complete simulator configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Loop    LoopConfig    `mapstructure:"loop"`
	Server  ServerConfig  `mapstructure:"server"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("session.seed", 1)
	v.SetDefault("session.startDate", "")
	v.SetDefault("session.handoff", "")
	v.SetDefault("session.bodyTable", "")
	v.SetDefault("session.outcomeDelay", "10s")
	v.SetDefault("session.skipStory", false)

	v.SetDefault("loop.mode", "realtime")
	v.SetDefault("loop.tick", "16ms")
	v.SetDefault("loop.duration", "0s")

	v.SetDefault("server.metricsAddr", "")
	v.SetDefault("server.healthAddr", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", observability.DefaultServiceName)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", 1.0)

	v.SetDefault("catalog.apiKey", "DEMO_KEY")
	v.SetDefault("catalog.baseURL", "https://api.nasa.gov/neo/rest/v1/feed")
	v.SetDefault("catalog.limit", 10)
	v.SetDefault("catalog.maxTries", 4)
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply; the file format follows its extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that decoding cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Loop.Mode) {
	case "realtime", "accelerated":
	default:
		return fmt.Errorf("%w: loop.mode %q (want realtime or accelerated)", ErrInvalid, c.Loop.Mode)
	}
	if c.Loop.Tick <= 0 {
		return fmt.Errorf("%w: loop.tick must be positive, got %s", ErrInvalid, c.Loop.Tick)
	}
	if c.Loop.Duration < 0 {
		return fmt.Errorf("%w: loop.duration must not be negative", ErrInvalid)
	}
	if c.Session.OutcomeDelay < 0 {
		return fmt.Errorf("%w: session.outcomeDelay must not be negative", ErrInvalid)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sampleRatio %v outside [0, 1]", ErrInvalid, c.Tracing.SampleRatio)
	}
	if c.Catalog.Limit < 0 {
		return fmt.Errorf("%w: catalog.limit must not be negative", ErrInvalid)
	}
	if _, err := c.StartTime(); err != nil {
		return err
	}
	return nil
}

// StartTime parses session.startDate as a date or RFC 3339 timestamp. An
// empty value yields the zero time, meaning "now".
func (c *Config) StartTime() (time.Time, error) {
	s := strings.TrimSpace(c.Session.StartDate)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: session.startDate %q", ErrInvalid, s)
	}
	return t, nil
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, AddSource: false}
}

// TracingSettings returns the tracing settings.
func (c *Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    strings.ToLower(c.Tracing.Exporter),
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
