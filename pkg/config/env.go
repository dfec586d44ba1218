package config

// EnvPrefix is handed to envconfig. Fields carry their full variable name in
// the tag, which envconfig falls back to when the prefixed key is unset.
const EnvPrefix = "ARBITRA"

// Status dialects understood by the dispute ledger.
const (
	StatusDialectCanonical = "canonical"
	StatusDialectLegacy    = "legacy"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "ARBITRA_APP_ENV"
	EnvPort         = "ARBITRA_APP_PORT"
	EnvLogLevel     = "ARBITRA_LOG_LEVEL"
	EnvLogWarnStack = "ARBITRA_LOG_WARN_STACK"

	EnvRedisURL       = "ARBITRA_REDIS_URL"
	EnvRedisAddr      = "ARBITRA_REDIS_ADDR"
	EnvRedisPassword  = "ARBITRA_REDIS_PASSWORD"
	EnvRedisDB        = "ARBITRA_REDIS_DB"
	EnvRedisPoolSize  = "ARBITRA_REDIS_POOL_SIZE"
	EnvRedisMinIdle   = "ARBITRA_REDIS_MIN_IDLE_CONNS"
	EnvRedisDialTO    = "ARBITRA_REDIS_DIAL_TIMEOUT"
	EnvRedisReadTO    = "ARBITRA_REDIS_READ_TIMEOUT"
	EnvRedisWriteTO   = "ARBITRA_REDIS_WRITE_TIMEOUT"
	EnvCacheTTL       = "ARBITRA_CACHE_DISPUTE_TTL"
	EnvCacheNamespace = "ARBITRA_CACHE_NAMESPACE"

	EnvJWTSecret  = "ARBITRA_JWT_SECRET"
	EnvJWTIssuer  = "ARBITRA_JWT_ISSUER"
	EnvJWTExpMins = "ARBITRA_JWT_EXPIRATION_MINUTES"

	EnvCanisterGatewayURL    = "ARBITRA_CANISTER_GATEWAY_URL"
	EnvCanisterDispute       = "ARBITRA_CANISTER_DISPUTE_LEDGER"
	EnvCanisterEvidence      = "ARBITRA_CANISTER_EVIDENCE_VAULT"
	EnvCanisterAnalysis      = "ARBITRA_CANISTER_ANALYSIS_ENGINE"
	EnvCanisterEscrow        = "ARBITRA_CANISTER_ESCROW"
	EnvCanisterCallTimeout   = "ARBITRA_CANISTER_CALL_TIMEOUT"
	EnvCanisterRetryBackoff  = "ARBITRA_CANISTER_RETRY_BACKOFF"
	EnvCanisterMaxRetries    = "ARBITRA_CANISTER_MAX_RETRIES"
	EnvCanisterStatusDialect = "ARBITRA_CANISTER_STATUS_DIALECT"

	EnvEvidenceMaxUploadMB = "ARBITRA_EVIDENCE_MAX_UPLOAD_MB"
	EnvAppealWindow        = "ARBITRA_APPEAL_WINDOW"
	EnvCORSOrigins         = "ARBITRA_CORS_ALLOWED_ORIGINS"

	EnvRateLimitWindow         = "ARBITRA_RATE_LIMIT_WINDOW"
	EnvRateLimitPrincipalLimit = "ARBITRA_RATE_LIMIT_PRINCIPAL_LIMIT"
	EnvRateLimitIPLimit        = "ARBITRA_RATE_LIMIT_IP_LIMIT"
)
