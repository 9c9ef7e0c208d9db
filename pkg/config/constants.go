package config

const EnvPrefix = "FC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	CatalogBackendMemory = "memory"
	CatalogBackendRedis  = "redis"
)

// Commit modes for order submission. Atomic keeps customer registration and
// the order in one transaction; two_phase commits the customer first.
const (
	CommitModeAtomic   = "atomic"
	CommitModeTwoPhase = "two_phase"
)

const (
	EnvAppEnv   = "FC_APP_ENV"
	EnvPort     = "FC_APP_PORT"
	EnvLogLevel = "FC_LOG_LEVEL"

	EnvDBDSN         = "FC_DB_DSN"
	EnvDBDriver      = "FC_DB_DRIVER"
	EnvDBAutoMigrate = "FC_DB_AUTO_MIGRATE"
	EnvDBHost        = "FC_DB_HOST"
	EnvDBUser        = "FC_DB_USER"
	EnvDBName        = "FC_DB_NAME"

	EnvRedisURL  = "FC_REDIS_URL"
	EnvRedisAddr = "FC_REDIS_ADDR"

	EnvCatalogBackend = "FC_CATALOG_CACHE_BACKEND"
	EnvCatalogTTL     = "FC_CATALOG_CACHE_TTL"

	EnvOrdersCommitMode   = "FC_ORDERS_COMMIT_MODE"
	EnvOrdersBusinessDays = "FC_ORDERS_MIN_DELIVERY_BUSINESS_DAYS"

	EnvCORSAllowedOrigins = "FC_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
