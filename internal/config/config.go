// Package config provides YAML-based configuration loading for Wayfarer.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Wayfarer configuration, loaded from config.yaml.
type Config struct {
	Platform    string            `yaml:"platform"` // "discord" or "slack"
	Discord     DiscordConfig     `yaml:"discord"`
	Slack       SlackConfig       `yaml:"slack"`
	AccuWeather AccuWeatherConfig `yaml:"accuweather"`
	Chart       ChartConfig       `yaml:"chart"`
	Cache       CacheConfig       `yaml:"cache"`
	Session     SessionConfig     `yaml:"session"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// DiscordConfig holds the Discord bot credentials and target channel.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// SlackConfig holds the Slack bot and app-level tokens for Socket Mode.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	AppToken  string `yaml:"app_token"`
	ChannelID string `yaml:"channel_id"`
}

// AccuWeatherConfig holds the forecast provider credentials.
type AccuWeatherConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// ChartConfig holds the chart rendering service settings.
type ChartConfig struct {
	RendererURL string `yaml:"renderer_url"`
}

// CacheConfig holds the local sqlite cache settings.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig tunes the in-memory dialogue session store.
type SessionConfig struct {
	TTLMinutes int    `yaml:"ttl_minutes"`
	SweepCron  string `yaml:"sweep_cron"` // 5-field cron expression
}

// DashboardConfig holds the status dashboard HTTP settings.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Platform == "" {
		c.Platform = "discord"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "wayfarer.db"
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 30
	}
	if c.Session.SweepCron == "" {
		c.Session.SweepCron = "*/10 * * * *"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8090
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Platform {
	case "discord":
		if c.Discord.Token == "" {
			errs = append(errs, "discord.token is required")
		}
	case "slack":
		if c.Slack.BotToken == "" {
			errs = append(errs, "slack.bot_token is required")
		}
		if c.Slack.AppToken == "" {
			errs = append(errs, "slack.app_token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("platform %q is not supported (discord, slack)", c.Platform))
	}
	if c.AccuWeather.APIKey == "" {
		errs = append(errs, "accuweather.api_key is required")
	}
	if c.Session.TTLMinutes < 0 {
		errs = append(errs, "session.ttl_minutes must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
