// Package config loads the YAML configuration shared by the pulsed broker
// and the pulsewatch TUI. Defaults are built in code and the file, when
// present, overlays them.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Generator GeneratorConfig `yaml:"generator"`
}

type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

type ClientConfig struct {
	URL                  string        `yaml:"url"`
	Token                string        `yaml:"token"`
	AutoConnect          bool          `yaml:"auto_connect"`
	Reconnect            bool          `yaml:"reconnect"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
}

type GeneratorConfig struct {
	Tick time.Duration `yaml:"tick"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:  "127.0.0.1",
			Port:  8090,
			Token: "dev-token",
		},
		Client: ClientConfig{
			URL:                  "ws://127.0.0.1:8090/ws",
			Token:                "dev-token",
			AutoConnect:          true,
			Reconnect:            true,
			ReconnectInterval:    5 * time.Second,
			MaxReconnectAttempts: 5,
			HeartbeatInterval:    30 * time.Second,
		},
		Generator: GeneratorConfig{
			Tick: time.Second,
		},
	}
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config {
	return defaultConfig()
}

// Load reads path and overlays it onto the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
