package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Krakenbot KrakenbotConfig `yaml:"krakenbot"`
	Kraken    KrakenConfig    `yaml:"kraken"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Screener  ScreenerConfig  `yaml:"screener"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type KrakenbotConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type KrakenConfig struct {
	URL            string               `yaml:"url"`
	Timeout        time.Duration        `yaml:"timeout"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type GatewayConfig struct {
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Retry       RetryConfig     `yaml:"retry"`
	CallTimeout time.Duration   `yaml:"call_timeout"`
}

type RateLimitConfig struct {
	Capacity     int           `yaml:"capacity"`
	RefillPeriod time.Duration `yaml:"refill_period"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type StrategyConfig struct {
	LookbackPeriod  int     `yaml:"lookback_period"`
	IntervalMinutes int     `yaml:"interval_minutes"`
	NotionalUSD     float64 `yaml:"notional_usd"`
	PriceDecimals   int32   `yaml:"price_decimals"`
}

type ScreenerConfig struct {
	TopN               int     `yaml:"top_n"`
	MomentumCandidates int     `yaml:"momentum_candidates"`
	MomentumTopN       int     `yaml:"momentum_top_n"`
	RSIPeriod          int     `yaml:"rsi_period"`
	RSIThreshold       float64 `yaml:"rsi_threshold"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

// defaults returns the configuration used when the YAML file omits a value.
func defaults() Config {
	return Config{
		Kraken: KrakenConfig{
			URL:     "https://api.kraken.com",
			Timeout: 15 * time.Second,
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    10,
				MaxConnsPerHost: 5,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		Gateway: GatewayConfig{
			RateLimit: RateLimitConfig{
				Capacity:     1,
				RefillPeriod: 1500 * time.Millisecond,
			},
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   5 * time.Second,
			},
			CallTimeout: 10 * time.Second,
		},
		Strategy: StrategyConfig{
			LookbackPeriod:  20,
			IntervalMinutes: 60,
			NotionalUSD:     20,
			PriceDecimals:   2,
		},
		Screener: ScreenerConfig{
			TopN:               20,
			MomentumCandidates: 25,
			MomentumTopN:       5,
			RSIPeriod:          14,
			RSIThreshold:       60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, "config/config.yml", map[string]string{
		environmentProduction: "config/config.production.yml",
		environmentStaging:    "config/config.staging.yml",
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Credentials reads the Kraken API key pair from the environment. They are
// deliberately never read from the YAML file.
func Credentials() (key, secret string) {
	return strings.TrimSpace(os.Getenv("KRAKEN_API_KEY")),
		strings.TrimSpace(os.Getenv("KRAKEN_PRIVATE_KEY"))
}

func validateConfig(cfg *Config) error {
	if cfg.Krakenbot.Name == "" {
		return fmt.Errorf("krakenbot.name is required")
	}
	if cfg.Krakenbot.Version == "" {
		return fmt.Errorf("krakenbot.version is required")
	}

	if cfg.Kraken.URL == "" {
		return fmt.Errorf("kraken.url is required")
	}
	if cfg.Kraken.Timeout <= 0 {
		return fmt.Errorf("kraken.timeout must be greater than 0")
	}

	if cfg.Gateway.RateLimit.Capacity <= 0 {
		return fmt.Errorf("gateway.rate_limit.capacity must be greater than 0")
	}
	if cfg.Gateway.RateLimit.RefillPeriod <= 0 {
		return fmt.Errorf("gateway.rate_limit.refill_period must be greater than 0")
	}
	if cfg.Gateway.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("gateway.retry.max_attempts must be greater than 0")
	}

	if cfg.Strategy.LookbackPeriod <= 1 {
		return fmt.Errorf("strategy.lookback_period must be greater than 1")
	}
	if cfg.Strategy.NotionalUSD <= 0 {
		return fmt.Errorf("strategy.notional_usd must be greater than 0")
	}

	if cfg.Screener.TopN <= 0 {
		return fmt.Errorf("screener.top_n must be greater than 0")
	}
	if cfg.Screener.MomentumCandidates <= 0 {
		return fmt.Errorf("screener.momentum_candidates must be greater than 0")
	}
	if cfg.Screener.RSIPeriod <= 1 {
		return fmt.Errorf("screener.rsi_period must be greater than 1")
	}

	return nil
}
