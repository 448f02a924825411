// Package config provides YAML-based configuration loading for the fabric.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration shared by the registry daemon and any
// node process joining the fabric.
type Config struct {
	// AppName is the logical name of the process.
	AppName string `mapstructure:"app_name"`

	// Network holds registry and multicast-bus endpoints.
	Network NetworkConfig `mapstructure:"network"`

	// Log holds logging configuration.
	Log LogConfig `mapstructure:"log"`
}

// NetworkConfig locates the registry and the multicast message bus.
type NetworkConfig struct {
	RegistryHost string `mapstructure:"registry_host"`
	RegistryPort int    `mapstructure:"registry_port"`

	// MulticastGroup/MulticastPort address the shared UDP bus.
	MulticastGroup string `mapstructure:"multicast_group"`
	MulticastPort  int    `mapstructure:"multicast_port"`
	// TTL bounds how many network hops bus datagrams may take.
	TTL int `mapstructure:"ttl"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`

	// Rotation controls rotation for file outputs
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with the fabric defaults.
func Default() *Config {
	return &Config{
		AppName: "eigen-node",
		Network: NetworkConfig{
			RegistryHost:   "127.0.0.1",
			RegistryPort:   1234,
			MulticastGroup: "239.255.76.67",
			MulticastPort:  7667,
			TTL:            1,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/eigen.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path when non-empty, otherwise searches
// common locations for an `eigen` config file. Environment variables use
// the EIGEN prefix with `.`/`-` replaced by `_`, e.g. EIGEN_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EIGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("network.registry_host", cfg.Network.RegistryHost)
	v.SetDefault("network.registry_port", cfg.Network.RegistryPort)
	v.SetDefault("network.multicast_group", cfg.Network.MulticastGroup)
	v.SetDefault("network.multicast_port", cfg.Network.MulticastPort)
	v.SetDefault("network.ttl", cfg.Network.TTL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		if envPath := os.Getenv("EIGEN_CONFIG"); envPath != "" {
			path = envPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("eigen")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".eigen"))
		}
	}

	// a missing config file is fine; defaults/env still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	n := &c.Network
	if strings.TrimSpace(n.RegistryHost) == "" {
		n.RegistryHost = "127.0.0.1"
	}
	if n.RegistryPort <= 0 || n.RegistryPort > 65535 {
		return fmt.Errorf("invalid network.registry_port: %d", n.RegistryPort)
	}
	ip := net.ParseIP(n.MulticastGroup)
	if ip == nil || !ip.IsMulticast() {
		return fmt.Errorf("network.multicast_group %q is not a multicast address", n.MulticastGroup)
	}
	if n.MulticastPort <= 0 || n.MulticastPort > 65535 {
		return fmt.Errorf("invalid network.multicast_port: %d", n.MulticastPort)
	}
	if n.TTL < 0 {
		return fmt.Errorf("invalid network.ttl: %d", n.TTL)
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
