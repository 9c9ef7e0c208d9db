package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Orders  OrdersConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Backend {
	case CatalogBackendMemory:
	case CatalogBackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=%s requires %s or %s", EnvCatalogBackend, CatalogBackendRedis, EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvCatalogBackend, c.Catalog.Backend)
	}
	switch c.Orders.CommitMode {
	case CommitModeAtomic, CommitModeTwoPhase:
	default:
		return fmt.Errorf("unsupported %s %q", EnvOrdersCommitMode, c.Orders.CommitMode)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"FC_APP_ENV" required:"true"`
	Port         string `envconfig:"FC_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"FC_DB_DSN"`
	Driver      string `envconfig:"FC_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"FC_DB_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"FC_DB_HOST"`
	LegacyPort     int    `envconfig:"FC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FC_DB_USER"`
	LegacyPassword string `envconfig:"FC_DB_PASSWORD"`
	LegacyName     string `envconfig:"FC_DB_NAME"`
	LegacySSLMode  string `envconfig:"FC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite store.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FC_REDIS_URL"`
	Address      string        `envconfig:"FC_REDIS_ADDR"`
	Password     string        `envconfig:"FC_REDIS_PASSWORD"`
	DB           int           `envconfig:"FC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CatalogConfig struct {
	Backend string        `envconfig:"FC_CATALOG_CACHE_BACKEND" default:"memory"`
	TTL     time.Duration `envconfig:"FC_CATALOG_CACHE_TTL" default:"5m"`
}

type OrdersConfig struct {
	CommitMode              string        `envconfig:"FC_ORDERS_COMMIT_MODE" default:"atomic"`
	MinDeliveryBusinessDays int           `envconfig:"FC_ORDERS_MIN_DELIVERY_BUSINESS_DAYS" default:"2"`
	RecentLimit             int           `envconfig:"FC_ORDERS_RECENT_LIMIT" default:"50"`
	ReportPageSize          int           `envconfig:"FC_ORDERS_REPORT_PAGE_SIZE" default:"20"`
	SubmitIdempotencyTTL    time.Duration `envconfig:"FC_ORDERS_SUBMIT_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FC_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
