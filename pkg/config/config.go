package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// APIServerConfig represents the API server configuration
type APIServerConfig struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Logging        LoggingConfig        `yaml:"logging"`
	Auth           AuthConfig           `yaml:"auth"`
	Cache          CacheConfig          `yaml:"cache"`
	Redis          RedisConfig          `yaml:"redis"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Events         EventsConfig         `yaml:"events"`
	Monetization   MonetizationConfig   `yaml:"monetization"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"60s"`
	// AllowedOrigins lists Mini-App origins allowed by CORS.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432" validate:"min=1,max=65535"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"flirtmarket" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-full"`

	MaxOpenConns    int           `yaml:"max_open_conns" default:"20" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	DialTimeout     time.Duration `yaml:"dial_timeout" default:"5s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// AuthConfig contains bearer token validation settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
	Issuer    string `yaml:"issuer"`
}

// CacheConfig selects the cache backend and per-category TTLs
type CacheConfig struct {
	Driver        string        `yaml:"driver" default:"memory" validate:"oneof=memory redis none"`
	UserTTL       time.Duration `yaml:"user_ttl" default:"5m"`
	MessagesTTL   time.Duration `yaml:"messages_ttl" default:"30s"`
	PerformersTTL time.Duration `yaml:"performers_ttl" default:"2m"`
	SweepInterval time.Duration `yaml:"sweep_interval" default:"1m"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig configures the per-user request limiter on write endpoints
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests" default:"60" validate:"min=1"`
	Window   time.Duration `yaml:"window" default:"1m"`
}

// EventsConfig configures the ledger event stream
type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"ledger.transactions"`
	// BufferSize bounds the events queued for the broker; overflow is dropped.
	BufferSize   int           `yaml:"buffer_size" default:"1024" validate:"min=1"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
}

// CoinPackage is a purchasable coin bundle
type CoinPackage struct {
	ID         string `yaml:"id" validate:"required"`
	Coins      int64  `yaml:"coins" validate:"min=1"`
	PriceCents int64  `yaml:"price_cents" validate:"min=0"`
}

// MonetizationConfig holds pricing and payout settings
type MonetizationConfig struct {
	DefaultMessagePrice int64 `yaml:"default_message_price" default:"10" validate:"min=1"`
	// CommissionRate is the share of a message price kept by the platform.
	CommissionRate              string        `yaml:"commission_rate" default:"0.7" validate:"numeric"`
	GiftFeePercent              int64         `yaml:"gift_fee_percent" default:"20" validate:"min=0,max=100"`
	SubscriptionFeePercent      int64         `yaml:"subscription_fee_percent" default:"20" validate:"min=0,max=100"`
	SubscriptionBasePricePerDay int64         `yaml:"subscription_base_price_per_day" default:"50" validate:"min=1"`
	MaxSubscriptionDays         int           `yaml:"max_subscription_days" default:"365" validate:"min=1"`
	ReferralBonus               int64         `yaml:"referral_bonus" default:"100" validate:"min=1"`
	MaxPurchaseAmount           int64         `yaml:"max_purchase_amount" default:"100000" validate:"min=1"`
	MaxAdjustAmount             int64         `yaml:"max_adjust_amount" default:"1000000" validate:"min=1"`
	CoinPackages                []CoinPackage `yaml:"coin_packages" validate:"dive"`
}

// ReconciliationConfig contains settings for ledger reconciliation
type ReconciliationConfig struct {
	InitialTimeout time.Duration `yaml:"initial_timeout" default:"1m"`
	Interval       time.Duration `yaml:"interval" default:"10m"`
}

// LoadAPIServer loads API server configuration from file.
// ${VAR} placeholders are expanded from the environment before decoding.
func LoadAPIServer(configPath string) (*APIServerConfig, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseAPIServer(raw)
}

// ParseAPIServer decodes, defaults and validates a YAML document.
func ParseAPIServer(raw []byte) (*APIServerConfig, error) {
	var cfg APIServerConfig
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if len(cfg.Monetization.CoinPackages) == 0 {
		cfg.Monetization.CoinPackages = defaultCoinPackages()
	}

	return &cfg, nil
}

func defaultCoinPackages() []CoinPackage {
	return []CoinPackage{
		{ID: "starter", Coins: 100, PriceCents: 199},
		{ID: "popular", Coins: 550, PriceCents: 999},
		{ID: "premium", Coins: 1200, PriceCents: 1999},
	}
}
