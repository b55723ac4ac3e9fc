package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "KASIR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv         = "KASIR_APP_ENV"
	EnvPort           = "KASIR_APP_PORT"
	EnvRegisterID     = "KASIR_REGISTER_ID"
	EnvAPIBaseURL     = "KASIR_API_BASE_URL"
	EnvAPITimeout     = "KASIR_API_TIMEOUT"
	EnvSearchLimit    = "KASIR_SEARCH_LIMIT"
	EnvSearchDebounce = "KASIR_SEARCH_DEBOUNCE"
	EnvRedisURL       = "KASIR_REDIS_URL"
	EnvRedisAddr      = "KASIR_REDIS_ADDR"
	EnvSessionTTL     = "KASIR_SESSION_TTL"
	EnvStoreName      = "KASIR_STORE_NAME"
	EnvReceiptWidth   = "KASIR_RECEIPT_WIDTH"
	EnvReportsDir     = "KASIR_REPORTS_DIR"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Breaker BreakerConfig
	Redis   RedisConfig
	Session SessionConfig
	Store   StoreConfig
	Reports ReportsConfig

	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KASIR_APP_ENV" required:"true"`
	Port         string `envconfig:"KASIR_APP_PORT" default:"8090"`
	RegisterID   string `envconfig:"KASIR_REGISTER_ID" default:"register-1"`
	LogLevel     string `envconfig:"KASIR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KASIR_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"KASIR_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"KASIR_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the register at the remote store backend.
type APIConfig struct {
	BaseURL        string        `envconfig:"KASIR_API_BASE_URL" default:"http://kasir-toko-sehat-ws.test/api"`
	Timeout        time.Duration `envconfig:"KASIR_API_TIMEOUT" default:"15s"`
	SearchLimit    int           `envconfig:"KASIR_SEARCH_LIMIT" default:"10"`
	SearchDebounce time.Duration `envconfig:"KASIR_SEARCH_DEBOUNCE" default:"300ms"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvAPIBaseURL)
	}
	if a.SearchLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvSearchLimit)
	}
	if a.SearchDebounce < 0 {
		return fmt.Errorf("%s must not be negative", EnvSearchDebounce)
	}
	return nil
}

type BreakerConfig struct {
	MaxRequests         uint32        `envconfig:"KASIR_BREAKER_MAX_REQUESTS" default:"1"`
	Interval            time.Duration `envconfig:"KASIR_BREAKER_INTERVAL" default:"60s"`
	Timeout             time.Duration `envconfig:"KASIR_BREAKER_TIMEOUT" default:"30s"`
	ConsecutiveFailures uint32        `envconfig:"KASIR_BREAKER_CONSECUTIVE_FAILURES" default:"5"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KASIR_REDIS_URL"`
	Address      string        `envconfig:"KASIR_REDIS_ADDR"`
	Password     string        `envconfig:"KASIR_REDIS_PASSWORD"`
	DB           int           `envconfig:"KASIR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KASIR_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"KASIR_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"KASIR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KASIR_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"KASIR_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	Namespace string        `envconfig:"KASIR_SESSION_NAMESPACE" default:"kasir"`
	TTL       time.Duration `envconfig:"KASIR_SESSION_TTL" default:"12h"`
}

// StoreConfig is the profile printed on receipts.
type StoreConfig struct {
	Name         string   `envconfig:"KASIR_STORE_NAME" default:"TOKO SEHAT KABANJAHE"`
	Address      string   `envconfig:"KASIR_STORE_ADDRESS" default:"Jl. Contoh No. 123, Kabanjahe"`
	Phone        string   `envconfig:"KASIR_STORE_PHONE" default:"0812-3456-7890"`
	Website      string   `envconfig:"KASIR_STORE_WEBSITE" default:"www.tokosehat.com"`
	FooterLines  []string `envconfig:"KASIR_RECEIPT_FOOTER" default:"Barang yang sudah dibeli,tidak dapat dikembalikan"`
	ReceiptWidth int      `envconfig:"KASIR_RECEIPT_WIDTH" default:"32"`
	Timezone     string   `envconfig:"KASIR_STORE_TIMEZONE" default:"Asia/Jakarta"`
}

// Location resolves the configured timezone, falling back to UTC.
func (s StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(s.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

// RateLimitConfig throttles login attempts per client IP and per username.
type RateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"KASIR_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit   int           `envconfig:"KASIR_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginUserLimit int           `envconfig:"KASIR_LOGIN_RATE_USER_LIMIT" default:"5"`
}

// IdempotencyConfig controls how long checkout responses are replayable.
type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"KASIR_IDEMPOTENCY_TTL" default:"24h"`
}

type ReportsConfig struct {
	OutputDir string `envconfig:"KASIR_REPORTS_DIR" default:"."`
}
