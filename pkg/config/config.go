package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `env:", prefix=SERVER_"`
	NATS      NATSConfig      `env:", prefix=NATS_"`
	Redis     RedisConfig     `env:", prefix=REDIS_"`
	Poller    PollerConfig    `env:", prefix=POLLER_"`
	Providers ProvidersConfig `env:", prefix=PROVIDER_"`
	Watchlist WatchlistConfig `env:", prefix=WATCHLIST_"`
	Security  SecurityConfig  `env:", prefix=SECURITY_"`
	Logging   LoggingConfig   `env:", prefix=LOG_"`
}

// ServerConfig holds the HTTP read-API configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s"`
}

// NATSConfig holds broadcast sink configuration
type NATSConfig struct {
	URL           string        `env:"URL, default=nats://localhost:4222"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
	PublishWait   time.Duration `env:"PUBLISH_WAIT, default=2s"`
}

// RedisConfig holds the optional durable fallback-cache mirror. When
// disabled the fallback cache is purely in-memory.
type RedisConfig struct {
	Enabled      bool          `env:"ENABLED, default=false"`
	Host         string        `env:"HOST, default=localhost"`
	Port         int           `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

// PollerConfig holds the scheduler configuration
type PollerConfig struct {
	Interval     time.Duration `env:"INTERVAL, default=15s"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT, default=8s"`
	Workers      int           `env:"WORKERS, default=3"`
}

// ProvidersConfig holds external data source configuration
type ProvidersConfig struct {
	AlphaVantage AlphaVantageConfig `env:", prefix=ALPHAVANTAGE_"`
	NSE          NSEConfig          `env:", prefix=NSE_"`
	Binance      BinanceConfig      `env:", prefix=BINANCE_"`
	CoinGecko    CoinGeckoConfig    `env:", prefix=COINGECKO_"`
}

// AlphaVantageConfig holds Alpha Vantage aggregator settings
type AlphaVantageConfig struct {
	APIKey  string        `env:"API_KEY, default=demo"`
	BaseURL string        `env:"BASE_URL, default=https://www.alphavantage.co/query"`
	Timeout time.Duration `env:"TIMEOUT, default=15s"`
}

// NSEConfig holds direct NSE India API settings
type NSEConfig struct {
	BaseURL      string        `env:"BASE_URL, default=https://www.nseindia.com/api"`
	BootstrapURL string        `env:"BOOTSTRAP_URL, default=https://www.nseindia.com"`
	Timeout      time.Duration `env:"TIMEOUT, default=10s"`
}

// BinanceConfig holds Binance public REST settings
type BinanceConfig struct {
	APIURL  string        `env:"API_URL, default=https://api.binance.com"`
	Timeout time.Duration `env:"TIMEOUT, default=10s"`
}

// CoinGeckoConfig holds CoinGecko public API settings
type CoinGeckoConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL, default=https://api.coingecko.com/api/v3"`
	Timeout time.Duration `env:"TIMEOUT, default=15s"`
}

// WatchlistConfig seeds the polled symbols per asset class
type WatchlistConfig struct {
	Equity    []string `env:"EQUITY, default=RELIANCE,TCS,HDFCBANK,INFY,ICICIBANK"`
	Crypto    []string `env:"CRYPTO, default=BTC,ETH,SOL"`
	Commodity []string `env:"COMMODITY, default=GOLD,SILVER"`
}

// SecurityConfig holds CORS configuration for the read API
type SecurityConfig struct {
	CORSEnabled bool     `env:"CORS_ENABLED, default=true"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
	CORSMethods []string `env:"CORS_METHODS, default=GET,POST,OPTIONS"`
	CORSHeaders []string `env:"CORS_HEADERS, default=*"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=json"`
	Output string `env:"OUTPUT, default=stdout"`
}

// Load loads configuration from environment variables using go-envconfig
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS URL is required")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Poller.Interval)
	}
	if c.Poller.Workers <= 0 {
		return fmt.Errorf("worker pool size must be positive, got %d", c.Poller.Workers)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("Redis host is required when Redis is enabled")
	}
	return nil
}

// Addr returns the host:port Redis dial address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr returns server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
