// Package config loads the CloudStack client configuration from a YAML
// file with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vintari/cskeeper/gateway"
)

// Config represents the client configuration
type Config struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"api_key"`
	SecretKey  string        `yaml:"secret_key"`
	HTTPMethod string        `yaml:"http_method"`
	Timeout    time.Duration `yaml:"timeout"`
	VerifySSL  *bool         `yaml:"verify_ssl"`

	JournalDir   string `yaml:"journal_dir"`
	LogLevel     string `yaml:"log_level"`
	OTELEndpoint string `yaml:"otel_endpoint"`
}

// Load reads configuration from file (optional), applies the environment
// overrides the CloudStack tooling ecosystem uses, then validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv honors the same variables the CloudStack CLI ecosystem reads.
func (c *Config) applyEnv() {
	if v := os.Getenv("CLOUDSTACK_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("CLOUDSTACK_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CLOUDSTACK_SECRET"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("CLOUDSTACK_METHOD"); v != "" {
		c.HTTPMethod = v
	}
	if v := os.Getenv("CLOUDSTACK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.HTTPMethod == "" {
		c.HTTPMethod = "get"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.VerifySSL == nil {
		verify := true
		c.VerifySSL = &verify
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate ensures the connection settings are complete.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required")
	}
	if c.HTTPMethod != "get" && c.HTTPMethod != "post" {
		return fmt.Errorf("http_method must be get or post, got %q", c.HTTPMethod)
	}
	return nil
}

// GatewayConfig maps the configuration onto the gateway client settings.
func (c *Config) GatewayConfig() gateway.Config {
	return gateway.Config{
		Endpoint:  c.Endpoint,
		APIKey:    c.APIKey,
		SecretKey: c.SecretKey,
		Method:    c.HTTPMethod,
		Timeout:   c.Timeout,
		VerifySSL: c.VerifySSL == nil || *c.VerifySSL,
	}
}
