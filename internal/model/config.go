package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the forum backend endpoints.
type ServerConfig struct {
	// BaseURL is the root URL of the forum REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// BrokerURL is the websocket URL of the notification broker.
	BrokerURL string `mapstructure:"broker_url" yaml:"broker_url"`

	// PageSize is the number of notifications fetched per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// ChannelConfig holds tunables for the live notification channel.
type ChannelConfig struct {
	// Topic is the broadcast destination the client subscribes to.
	Topic string `mapstructure:"topic" yaml:"topic"`

	// ReconnectDelaySec is the fixed delay between reconnect attempts.
	ReconnectDelaySec int `mapstructure:"reconnect_delay_sec" yaml:"reconnect_delay_sec"`

	// HeartbeatSec is the keep-alive interval, applied in both
	// directions of the broker handshake.
	HeartbeatSec int `mapstructure:"heartbeat_sec" yaml:"heartbeat_sec"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Channel ChannelConfig `mapstructure:"channel" yaml:"channel"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/forum-inbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "forum-inbox", "config.yaml")
}

// DefaultDataPath returns the default path for the local notification
// cache database.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "inbox.db")
	}
	return filepath.Join(home, ".local", "share", "forum-inbox", "inbox.db")
}

// DefaultLogPath returns the default log file location. Logging goes
// to a file so it never corrupts the rendered TUI.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "forum-inbox.log")
	}
	return filepath.Join(home, ".local", "state", "forum-inbox", "inbox.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:   "https://api.forum.didan.id.vn/forum",
			BrokerURL: "wss://api.forum.didan.id.vn/forum/notifications/ws",
			PageSize:  20,
		},
		Channel: ChannelConfig{
			Topic:             "/notifications/topic",
			ReconnectDelaySec: 5,
			HeartbeatSec:      4,
		},
		Log: LogConfig{
			Level: "info",
			File:  DefaultLogPath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "https://api.forum.didan.id.vn/forum")
	v.SetDefault("server.broker_url", "wss://api.forum.didan.id.vn/forum/notifications/ws")
	v.SetDefault("server.page_size", 20)
	v.SetDefault("channel.topic", "/notifications/topic")
	v.SetDefault("channel.reconnect_delay_sec", 5)
	v.SetDefault("channel.heartbeat_sec", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", DefaultLogPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("channel", cfg.Channel)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
