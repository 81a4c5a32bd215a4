// pkg/config/config.go
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ServiceName string
	HTTPAddr    string // router-service
	AdminAddr   string // admin-api-service

	// OIDC / JWT for inbound calls; empty JWKSURL disables auth (dev)
	Issuer   string
	Audience string
	JWKSURL  string

	// Redis & Postgres
	RedisURL      string
	RedisPoolSize int
	DatabaseURL   string
	DBMaxConns    int
	DBMinConns    int
	DBConnMaxLife time.Duration

	// MasterKey encrypts merchant keys at rest.
	MasterKey      string
	MerchantSeed   string
	ConnectorsFile string
	PolicyFile     string

	ConnectorTimeout time.Duration
	CacheTTL         time.Duration
	CacheSize        int

	OTLPEndpoint string
}

var (
	ErrMasterKeyRequired = errors.New("PAYROUTER_MASTER_KEY is required outside dev")
	ErrInvalidTimeout    = errors.New("CONNECTOR_TIMEOUT_MS must be positive")
	ErrInvalidCacheSize  = errors.New("CACHE_SIZE must be positive")
	ErrInvalidPoolSize   = errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
)

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("PAYROUTER_ENV", "dev"),
		ServiceName:      env("OTEL_SERVICE_NAME", "payrouter"),
		HTTPAddr:         env("PAYROUTER_HTTP_ADDR", ":8080"),
		AdminAddr:        env("PAYROUTER_ADMIN_ADDR", ":8082"),
		Issuer:           env("OIDC_ISSUER", ""),
		Audience:         env("OIDC_AUDIENCE", "payrouter"),
		JWKSURL:          env("JWKS_URL", ""),
		RedisURL:         env("REDIS_URL", ""),
		RedisPoolSize:    envInt("REDIS_POOL_SIZE", 0),
		DatabaseURL:      env("DATABASE_URL", ""),
		DBMaxConns:       envInt("DB_MAX_CONNS", 10),
		DBMinConns:       envInt("DB_MIN_CONNS", 0),
		DBConnMaxLife:    envDur("DB_CONN_MAX_LIFETIME_SEC", 1800) * time.Second,
		MasterKey:        env("PAYROUTER_MASTER_KEY", ""),
		MerchantSeed:     env("MERCHANT_SEED_JSON", ""),
		ConnectorsFile:   env("CONNECTORS_FILE", ""),
		PolicyFile:       env("POLICY_FILE", ""),
		ConnectorTimeout: envDur("CONNECTOR_TIMEOUT_MS", 30000) * time.Millisecond,
		CacheTTL:         envDur("CACHE_TTL_SEC", 300) * time.Second,
		CacheSize:        envInt("CACHE_SIZE", 1024),
		OTLPEndpoint:     env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory merchant and user stores")
	}
	if cfg.MasterKey == "" && cfg.Env == "dev" {
		cfg.MasterKey = "dev-master-key"
	}
	return cfg
}

func (c Config) Validate() error {
	var errs []error
	if c.MasterKey == "" {
		errs = append(errs, ErrMasterKeyRequired)
	}
	if c.ConnectorTimeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.CacheSize <= 0 {
		errs = append(errs, ErrInvalidCacheSize)
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		errs = append(errs, ErrInvalidPoolSize)
	}
	return errors.Join(errs...)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return i
	}
	return def
}

func envDur(k string, def int) time.Duration {
	return time.Duration(envInt(k, def))
}
