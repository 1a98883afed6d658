// Package config loads and validates cloner configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Scraper      ScraperConfig      `mapstructure:"scraper"`
	Generator    GeneratorConfig    `mapstructure:"generator"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs browser capture and retry behavior.
type ScraperConfig struct {
	MaxAttempts       int    `mapstructure:"max_attempts"`
	BackoffBaseMs     int    `mapstructure:"backoff_base_ms"`
	NavTimeoutSec     int    `mapstructure:"nav_timeout_seconds"`
	UserAgent         string `mapstructure:"user_agent"`
	MaxStructureBytes int    `mapstructure:"max_structure_bytes"`
}

// GeneratorConfig configures the LLM generation backend. An empty APIKey
// leaves the service on the deterministic fallback path.
type GeneratorConfig struct {
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	APIKey         string `mapstructure:"api_key"`
}

// OrchestratorConfig bounds job lifecycle timing.
type OrchestratorConfig struct {
	SubscriberWaitSeconds int `mapstructure:"subscriber_wait_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLONER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("logging.development", true)
	v.SetDefault("scraper.max_attempts", 3)
	v.SetDefault("scraper.backoff_base_ms", 1000)
	v.SetDefault("scraper.nav_timeout_seconds", 30)
	v.SetDefault("scraper.user_agent", "sitecloner-bot/0.1")
	v.SetDefault("scraper.max_structure_bytes", 65536)
	v.SetDefault("generator.model", "gpt-4o")
	v.SetDefault("generator.timeout_seconds", 60)
	v.SetDefault("orchestrator.subscriber_wait_seconds", 30)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.MaxAttempts <= 0 {
		return fmt.Errorf("scraper.max_attempts must be > 0")
	}
	if c.Scraper.BackoffBaseMs <= 0 {
		return fmt.Errorf("scraper.backoff_base_ms must be > 0")
	}
	if c.Scraper.NavTimeoutSec <= 0 {
		return fmt.Errorf("scraper.nav_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxStructureBytes <= 0 {
		return fmt.Errorf("scraper.max_structure_bytes must be > 0")
	}
	if c.Generator.TimeoutSeconds <= 0 {
		return fmt.Errorf("generator.timeout_seconds must be > 0")
	}
	if c.Orchestrator.SubscriberWaitSeconds <= 0 {
		return fmt.Errorf("orchestrator.subscriber_wait_seconds must be > 0")
	}
	return nil
}

// NavTimeout converts the navigation timeout into a duration.
func (c ScraperConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// BackoffBase converts the base backoff delay into a duration.
func (c ScraperConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// Timeout converts the generation timeout into a duration.
func (c GeneratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SubscriberWait converts the gate timeout into a duration.
func (c OrchestratorConfig) SubscriberWait() time.Duration {
	return time.Duration(c.SubscriberWaitSeconds) * time.Second
}
