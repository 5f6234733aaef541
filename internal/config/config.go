package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Network selects the Binance environment.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Stream types supported by the ticker subscription.
const (
	StreamTypeMiniTicker = "mini_ticker"
	StreamTypeTicker     = "ticker"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Binance    BinanceConfig    `mapstructure:"binance"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// TradingConfig contains trading settings
type TradingConfig struct {
	Symbols        []string `mapstructure:"symbols"`         // ["BTCUSDT", "ETHUSDT"]
	InitialCapital float64  `mapstructure:"initial_capital"` // 10000.0
	UseTestnet     bool     `mapstructure:"use_testnet"`
	RiskFreeRate   float64  `mapstructure:"risk_free_rate"` // pass-through for reporting
}

// RiskConfig contains the limits enforced by the risk gate
type RiskConfig struct {
	MaxPositionPct  float64 `mapstructure:"max_position_pct"`   // fraction of equity per new notional
	MaxDailyLossPct float64 `mapstructure:"max_daily_loss_pct"` // drawdown from the day anchor
	MaxPositions    int     `mapstructure:"max_positions"`      // concurrent non-zero positions
}

// BinanceConfig contains exchange connectivity settings
type BinanceConfig struct {
	APIKey         string `mapstructure:"api_key"`
	APISecret      string `mapstructure:"api_secret"`
	Network        string `mapstructure:"network"`         // mainnet or testnet
	RecvWindow     int64  `mapstructure:"recv_window"`     // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
	StreamType     string `mapstructure:"stream_type"`     // mini_ticker or ticker
}

// DatabaseConfig contains PostgreSQL settings. An empty URL disables
// persistence and the engine runs purely in memory.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains the optional candle cache settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MonitoringConfig contains metrics settings
type MonitoringConfig struct {
	EnableMetrics bool `mapstructure:"enable_metrics"`
	MetricsPort   int  `mapstructure:"metrics_port"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TRADEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and environment variables apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The testnet flag wins when the network was not set explicitly.
	if !v.IsSet("binance.network") {
		if cfg.Trading.UseTestnet {
			cfg.Binance.Network = NetworkTestnet
		} else {
			cfg.Binance.Network = NetworkMainnet
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tradepulse")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("trading.symbols", []string{"BTCUSDT", "ETHUSDT"})
	v.SetDefault("trading.initial_capital", 10000.0)
	v.SetDefault("trading.use_testnet", true)
	v.SetDefault("trading.risk_free_rate", 0.02)

	v.SetDefault("risk.max_position_pct", 0.05)
	v.SetDefault("risk.max_daily_loss_pct", 0.02)
	v.SetDefault("risk.max_positions", 10)

	v.SetDefault("binance.recv_window", 5000)
	v.SetDefault("binance.request_timeout", 10)
	v.SetDefault("binance.stream_type", StreamTypeMiniTicker)

	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_port", 9100)
}

// Validate checks configuration invariants. Violations are fatal at load time.
func (c *Config) Validate() error {
	if c.Binance.Network != NetworkMainnet && c.Binance.Network != NetworkTestnet {
		return fmt.Errorf("unsupported network: %s", c.Binance.Network)
	}
	if c.Binance.StreamType != StreamTypeMiniTicker && c.Binance.StreamType != StreamTypeTicker {
		return fmt.Errorf("unsupported stream type: %s", c.Binance.StreamType)
	}
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("trading.initial_capital must be positive, got %f", c.Trading.InitialCapital)
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols must not be empty")
	}
	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return fmt.Errorf("risk.max_position_pct must be in (0,1], got %f", c.Risk.MaxPositionPct)
	}
	if c.Risk.MaxDailyLossPct < 0 || c.Risk.MaxDailyLossPct > 1 {
		return fmt.Errorf("risk.max_daily_loss_pct must be in [0,1], got %f", c.Risk.MaxDailyLossPct)
	}
	if c.Risk.MaxPositions <= 0 {
		return fmt.Errorf("risk.max_positions must be positive, got %d", c.Risk.MaxPositions)
	}
	return nil
}

// IsConfigured reports whether live exchange credentials are present.
// Without credentials the engine falls back to the synthetic data source
// and the simulated order backend.
func (c *BinanceConfig) IsConfigured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// WsURL returns the websocket base endpoint for the configured network.
func (c *BinanceConfig) WsURL() string {
	if c.Network == NetworkMainnet {
		return "wss://stream.binance.com:9443"
	}
	return "wss://testnet.binance.vision"
}

// StreamName returns the combined-stream name for a symbol,
// e.g. "btcusdt@miniTicker".
func (c *BinanceConfig) StreamName(symbol string) string {
	suffix := "miniTicker"
	if c.StreamType == StreamTypeTicker {
		suffix = "ticker"
	}
	return strings.ToLower(symbol) + "@" + suffix
}

// GetRequestTimeout returns the REST request timeout as a time.Duration.
func (c *BinanceConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
