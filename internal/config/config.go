package config

import (
	"fmt"
	"strings"

	pkgconfig "github.com/shazamohamed705/amazing/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Remote storefront backend
	APIBaseURL string `env:"API_BASE_URL" envDefault:"https://backend.amazing-smm.com/api"`

	// Device-local store (guest cart + session token)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// DeviceID keys this device's event stream. Empty generates one at boot.
	DeviceID string `env:"DEVICE_ID" envDefault:""`

	// Kafka cart activity events. Empty broker list disables publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"" envSeparator:","`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSample    float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof access
	PprofCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EventsEnabled reports whether cart activity events should be published.
func (c *Config) EventsEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.TraceSample < 0 || c.TraceSample > 1 {
		return fmt.Errorf("invalid trace sample rate: %f", c.TraceSample)
	}
	return nil
}
