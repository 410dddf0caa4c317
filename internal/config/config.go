package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	GC      GCConfig      `mapstructure:"gc"`
	Log     LogConfig     `mapstructure:"log"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	MaxClients  int           `mapstructure:"max_clients"`  // 0 means unlimited
	IdleTimeout time.Duration `mapstructure:"idle_timeout"` // 0 disables idle disconnects
}

// StorageConfig defines the internal structure of the storage engine
type StorageConfig struct {
	Shards uint `mapstructure:"shards"`
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// PubSubConfig bounds subscriber mailboxes
type PubSubConfig struct {
	MailboxLimit int `mapstructure:"mailbox_limit"` // pending messages before a subscriber is dropped, 0 means unlimited
}

// Load reads the configuration from a file and overrides it with environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix("UMBRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that would otherwise fail deep inside the engine
func (c *Config) Validate() error {
	if c.Storage.Shards == 0 || c.Storage.Shards > 64 || bits.OnesCount(c.Storage.Shards) != 1 {
		return fmt.Errorf("storage.shards must be a power of 2 not greater than 64, got %d", c.Storage.Shards)
	}

	if c.GC.Enabled {
		if c.GC.Interval <= 0 {
			return errors.New("gc.interval must be positive")
		}
		if c.GC.SamplesPerCheck <= 0 {
			return errors.New("gc.samples_per_check must be positive")
		}
		if c.GC.MatchThreshold < 0 || c.GC.MatchThreshold > 1 {
			return errors.New("gc.match_threshold must be within [0, 1]")
		}
	}

	if c.Server.MaxClients < 0 {
		return errors.New("server.max_clients must not be negative")
	}

	if c.PubSub.MailboxLimit < 0 {
		return errors.New("pubsub.mailbox_limit must not be negative")
	}

	return nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "6380")
	v.SetDefault("server.max_clients", 10000)
	v.SetDefault("server.idle_timeout", "0s")

	// Storage
	v.SetDefault("storage.shards", 32)

	// GC
	gc := DefaultGCConfig()
	v.SetDefault("gc.enabled", gc.Enabled)
	v.SetDefault("gc.interval", gc.Interval)
	v.SetDefault("gc.samples_per_check", gc.SamplesPerCheck)
	v.SetDefault("gc.match_threshold", gc.MatchThreshold)
	v.SetDefault("gc.max_rounds", gc.MaxRounds)

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// PubSub
	v.SetDefault("pubsub.mailbox_limit", 0)
}
