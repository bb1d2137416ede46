package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ServiceName    = ""
	ServiceVersion = ""
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env                     string                    `mapstructure:"env"`
	Log                     LogConfig                 `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration             `mapstructure:"graceful_shutdown_timeout"`
	Port                    map[string]string         `mapstructure:"port"`
	Brokers                 map[string]BrokerConfig   `mapstructure:"brokers"`
	Database                map[string]DatabaseConfig `mapstructure:"database"`
	Redis                   map[string]RedisConfig    `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig       `mapstructure:"nats_jetstream"`
	Strategy                StrategyConfig            `mapstructure:"strategy"`
}

type StrategyConfig struct {
	TickFollower TickFollowerStrategyConfig `mapstructure:"tick_follower"`
}

type TickFollowerStrategyConfig struct {
	Symbols []string `mapstructure:"symbols"`
	// Unit is the share quantity of every order the strategy submits.
	Unit int64 `mapstructure:"unit"`
	// MaxShares caps per-instrument exposure, confirmed plus pending.
	MaxShares      int64         `mapstructure:"max_shares"`
	MinTradeSize   int64         `mapstructure:"min_trade_size"`
	ImbalanceRatio float64       `mapstructure:"imbalance_ratio"`
	QuoteGuard     time.Duration `mapstructure:"quote_guard"`
	Session        SessionConfig `mapstructure:"session"`
}

type SessionConfig struct {
	Timezone string `mapstructure:"timezone"`
	Start    string `mapstructure:"start"` // HH:MM, exchange local time
	End      string `mapstructure:"end"`   // HH:MM, exchange local time
	// Weekday bounds use a Monday=0 convention.
	FirstWeekday int `mapstructure:"first_weekday"`
	LastWeekday  int `mapstructure:"last_weekday"`
}

type NatsJetstreamConfig struct {
	URL             string                   `mapstructure:"url"`
	MaxRetries      int                      `mapstructure:"max_retries"`
	ReconnectFactor float64                  `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration            `mapstructure:"min_jitter"`
	MaxJitter       time.Duration            `mapstructure:"max_jitter"`
	TimeoutHandler  map[string]time.Duration `mapstructure:"timeout_handler"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type BrokerConfig struct {
	Name      string `mapstructure:"name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url"`
	StreamURL string `mapstructure:"stream_url"`
}

type RedisConfig struct {
	CacheDSN string `mapstructure:"cache_dsn"`
}

func LoadConfig(configPath string) error {
	viper.Reset()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = viper.Unmarshal(&Env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	Env.Strategy.TickFollower.ApplyDefaults()

	return nil
}

// ApplyDefaults fills the strategy knobs the original operators rarely override.
func (cfg *TickFollowerStrategyConfig) ApplyDefaults() {
	if cfg.Unit <= 0 {
		cfg.Unit = 100
	}
	if cfg.MaxShares < cfg.Unit {
		cfg.MaxShares = 500
	}
	if cfg.MinTradeSize <= 0 {
		cfg.MinTradeSize = 100
	}
	if cfg.ImbalanceRatio <= 0 {
		cfg.ImbalanceRatio = 1.8
	}
	if cfg.QuoteGuard <= 0 {
		cfg.QuoteGuard = 5 * time.Millisecond
	}
	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "America/New_York"
	}
	if cfg.Session.Start == "" {
		cfg.Session.Start = "09:40"
	}
	if cfg.Session.End == "" {
		cfg.Session.End = "12:40"
	}
	if cfg.Session.FirstWeekday == 0 && cfg.Session.LastWeekday == 0 {
		cfg.Session.LastWeekday = 5
	}
}
