package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// SweepInterval is how often the eviction sweeper runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	// ChannelIdleTTL is how long a channel may stay inactive before the
	// sweeper evicts it.
	ChannelIdleTTL time.Duration `mapstructure:"channel_idle_ttl" yaml:"channel_idle_ttl"`
}

// Default returns configuration with documented defaults: a sweep every
// 300 seconds evicting channels idle for more than an hour.
func Default() Config {
	return Config{
		Addr:              ":5035",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		SweepInterval:     300 * time.Second,
		ChannelIdleTTL:    time.Hour,
	}
}
