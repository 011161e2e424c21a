package main

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// config is the service configuration. Values come from an optional YAML
// file, then environment variables override field by field.
type config struct {
	Port     string `env:"PORT" yaml:"port"`
	DBPath   string `env:"DB_PATH" yaml:"db_path"`
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level"`

	// MCPTransport enables the MCP tool surface: "" (off) or "stdio".
	MCPTransport string `env:"MCP_TRANSPORT" yaml:"mcp_transport"`

	// Blog publishing API.
	BlogAPIURL   string `env:"BLOG_API_URL" yaml:"blog_api_url"`
	BlogAPIToken string `env:"BLOG_API_TOKEN" yaml:"blog_api_token"`
	// StoreURL is the storefront base URL passed to the text generator for
	// link-backs.
	StoreURL string `env:"STORE_URL" yaml:"store_url"`

	// Text generation.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	OpenAIModel  string `env:"OPENAI_MODEL" yaml:"openai_model"`

	// Deployment-level schedule defaults, overridable per tenant.
	DefaultTimezone  string `env:"DEFAULT_TIMEZONE" yaml:"default_timezone"`
	DefaultTargetDay int    `env:"DEFAULT_TARGET_DAY" yaml:"default_target_day"`
	DefaultHour      int    `env:"DEFAULT_TARGET_HOUR" yaml:"default_target_hour"`

	// On-demand generation budget.
	RateLimit  int           `env:"RATE_LIMIT" yaml:"rate_limit"`
	RateWindow time.Duration `env:"RATE_WINDOW" yaml:"rate_window"`

	// EventRetention bounds the business event log.
	EventRetention time.Duration `env:"EVENT_RETENTION" yaml:"event_retention"`
}

func (c *config) defaults() {
	if c.Port == "" {
		c.Port = "8086"
	}
	if c.DBPath == "" {
		c.DBPath = "db/plume.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "Asia/Jerusalem"
	}
	if c.DefaultHour == 0 {
		c.DefaultHour = 10
	}
	if c.RateLimit == 0 {
		c.RateLimit = 20
	}
	if c.RateWindow == 0 {
		c.RateWindow = time.Hour
	}
	if c.EventRetention == 0 {
		c.EventRetention = 90 * 24 * time.Hour
	}
}

// loadConfig reads the optional YAML file at path, applies environment
// overrides, then fills defaults.
func loadConfig(path string) (*config, error) {
	var cfg config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.defaults()
	return &cfg, nil
}
