package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Canister  CanisterConfig
	Evidence  EvidenceConfig
	Lifecycle LifecycleConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, parseErr := url.ParseRequestURI(c.Canister.GatewayURL); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s must be an absolute url: %w", EnvCanisterGatewayURL, parseErr))
	}
	if c.Canister.CallTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvCanisterCallTimeout))
	}
	if c.Canister.RetryBackoff < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvCanisterRetryBackoff))
	}
	if c.Canister.MaxRetries < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvCanisterMaxRetries))
	}
	switch strings.ToLower(strings.TrimSpace(c.Canister.StatusDialect)) {
	case StatusDialectCanonical, StatusDialectLegacy:
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be %q or %q", EnvCanisterStatusDialect, StatusDialectCanonical, StatusDialectLegacy))
	}
	if c.Evidence.MaxUploadMB <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvEvidenceMaxUploadMB))
	}
	if c.Lifecycle.AppealWindow < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvAppealWindow))
	}
	if c.Cache.DisputeTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvCacheTTL))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvJWTExpMins))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"ARBITRA_APP_ENV" required:"true"`
	Port         string `envconfig:"ARBITRA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ARBITRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARBITRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"ARBITRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ARBITRA_REDIS_ADDR"`
	Password     string        `envconfig:"ARBITRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARBITRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARBITRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARBITRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARBITRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARBITRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARBITRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CacheConfig struct {
	DisputeTTL time.Duration `envconfig:"ARBITRA_CACHE_DISPUTE_TTL" default:"24h"`
	Namespace  string        `envconfig:"ARBITRA_CACHE_NAMESPACE" default:"arb"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ARBITRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ARBITRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ARBITRA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// CanisterConfig locates the collaborator canisters behind the HTTP gateway.
type CanisterConfig struct {
	GatewayURL     string        `envconfig:"ARBITRA_CANISTER_GATEWAY_URL" required:"true"`
	DisputeLedger  string        `envconfig:"ARBITRA_CANISTER_DISPUTE_LEDGER" default:"arbitra_backend"`
	EvidenceVault  string        `envconfig:"ARBITRA_CANISTER_EVIDENCE_VAULT" default:"evidence_manager"`
	AnalysisEngine string        `envconfig:"ARBITRA_CANISTER_ANALYSIS_ENGINE" default:"ai_analysis"`
	Escrow         string        `envconfig:"ARBITRA_CANISTER_ESCROW" default:"bitcoin_escrow"`
	CallTimeout    time.Duration `envconfig:"ARBITRA_CANISTER_CALL_TIMEOUT" default:"10s"`
	RetryBackoff   time.Duration `envconfig:"ARBITRA_CANISTER_RETRY_BACKOFF" default:"250ms"`
	MaxRetries     int           `envconfig:"ARBITRA_CANISTER_MAX_RETRIES" default:"1"`
	StatusDialect  string        `envconfig:"ARBITRA_CANISTER_STATUS_DIALECT" default:"canonical"`
}

type EvidenceConfig struct {
	MaxUploadMB int `envconfig:"ARBITRA_EVIDENCE_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured limit to bytes.
func (e EvidenceConfig) MaxUploadBytes() int64 {
	return int64(e.MaxUploadMB) << 20
}

// LifecycleConfig holds dispute policy knobs. A zero AppealWindow keeps
// appeals closed.
type LifecycleConfig struct {
	AppealWindow time.Duration `envconfig:"ARBITRA_APPEAL_WINDOW"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ARBITRA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig throttles mutating requests per principal and per client IP.
// A zero window disables throttling.
type RateLimitConfig struct {
	Window         time.Duration `envconfig:"ARBITRA_RATE_LIMIT_WINDOW" default:"1m"`
	PrincipalLimit int           `envconfig:"ARBITRA_RATE_LIMIT_PRINCIPAL_LIMIT" default:"30"`
	IPLimit        int           `envconfig:"ARBITRA_RATE_LIMIT_IP_LIMIT" default:"120"`
}
