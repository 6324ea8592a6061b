package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Indodax   IndodaxConfig   `mapstructure:"indodax"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	History   HistoryConfig   `mapstructure:"history"`
	Collector CollectorConfig `mapstructure:"collector"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type IndodaxConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistoryConfig controls snapshot retention and query limits.
type HistoryConfig struct {
	Retention    time.Duration `mapstructure:"retention"`     // rolling window per pair
	DefaultLimit int           `mapstructure:"default_limit"` // rows returned when the caller omits limit
	MaxLimit     int           `mapstructure:"max_limit"`     // hard cap on requested limit
}

// CollectorConfig controls the optional server-side snapshot poller.
type CollectorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Pairs    []string      `mapstructure:"pairs"`
	Interval time.Duration `mapstructure:"interval"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load(path string) *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// Support environment variables with dot notation (e.g., POSTGRES_HOST)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("indodax.base_url", "https://indodax.com")
	v.SetDefault("indodax.timeout", 10*time.Second)

	v.SetDefault("history.retention", 7*24*time.Hour)
	v.SetDefault("history.default_limit", 1000)
	v.SetDefault("history.max_limit", 5000)

	v.SetDefault("collector.enabled", false)
	v.SetDefault("collector.interval", time.Minute)
}
