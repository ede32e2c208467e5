package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Exchange ExchangeConfig
	Ingest   IngestConfig
	Sink     SinkConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
}

// ExchangeConfig defines which exchange to stream from and how.
type ExchangeConfig struct {
	Name                     string
	Env                      string
	TimeoutSeconds           int `mapstructure:"timeout_seconds"`
	ReconnectIntervalSeconds int `mapstructure:"reconnect_interval_seconds"`
}

// Timeout is the REST request timeout. Zero means no timeout.
func (c ExchangeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReconnectInterval is the fixed wait between streaming sessions.
func (c ExchangeConfig) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectIntervalSeconds) * time.Second
}

// IngestConfig defines the products to stream and progress reporting.
type IngestConfig struct {
	Products      []string
	ProgressEvery int `mapstructure:"progress_every"`
}

// SinkConfig selects the time-series backend.
type SinkConfig struct {
	Driver         string
	RetentionHours int `mapstructure:"retention_hours"`
}

// Retention is the series retention period.
func (c SinkConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// RedisConfig defines the Redis TimeSeries connection.
type RedisConfig struct {
	URL string
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DSN returns a postgres connection string.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// MetricsConfig defines the prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("exchange.name", "hyperliquid")
	v.SetDefault("exchange.env", "dev")
	v.SetDefault("exchange.timeout_seconds", 10)
	v.SetDefault("exchange.reconnect_interval_seconds", 3)
	v.SetDefault("ingest.products", []string{
		"BTC/USDC", "BTC-USDC",
		"ETH/USDC", "ETH-USDC",
		"SOL/USDC", "SOL-USDC",
		"HYPE-USDC",
	})
	v.SetDefault("ingest.progress_every", 100)
	v.SetDefault("sink.driver", "redis")
	v.SetDefault("sink.retention_hours", 24)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}

	err = config.Validate()
	return
}

// Validate checks values viper cannot enforce.
func (c Config) Validate() error {
	if c.Exchange.ReconnectIntervalSeconds <= 0 {
		return fmt.Errorf("exchange.reconnect_interval_seconds must be positive")
	}
	if c.Ingest.ProgressEvery <= 0 {
		return fmt.Errorf("ingest.progress_every must be positive")
	}
	if c.Sink.RetentionHours < 0 {
		return fmt.Errorf("sink.retention_hours must not be negative")
	}
	switch c.Sink.Driver {
	case "redis", "postgres":
	default:
		return fmt.Errorf("unknown sink driver: %s", c.Sink.Driver)
	}
	return nil
}
