package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"

	"artesanato-catalog/internal/store"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_ENV"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
	LogFile    string `envconfig:"LOG_FILE"`                      // rotated with lumberjack when set
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Storage    StorageConfig
	Catalog    CatalogConfig
	Storefront StorefrontConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// StorageConfig selects the medium the catalog snapshot is written to.
type StorageConfig struct {
	Driver         string        `envconfig:"STORAGE_DRIVER" default:"bolt"` // memory, bolt, redis, postgres, mongo
	ConnectTimeout time.Duration `envconfig:"STORAGE_CONNECT_TIMEOUT" default:"5s"`
	MemoryQuota    int           `envconfig:"MEMORY_QUOTA_BYTES" default:"16777216"` // 0 disables; must hold one encoded photo
	BoltPath       string        `envconfig:"BOLT_PATH" default:"catalog.db"`
	Redis          RedisConfig
	Postgres       PostgresConfig
	Mongo          MongoConfig
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_KEY_PREFIX" default:"catalog:"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DBNAME" default:"catalog"`
}

// MongoConfig holds MongoDB connection details.
type MongoConfig struct {
	URI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	DBName string `envconfig:"MONGO_DBNAME" default:"catalog"`
}

// CatalogConfig tunes the registration tool.
type CatalogConfig struct {
	Locale        string `envconfig:"CATALOG_LOCALE" default:"pt-BR"`
	MaxPhotoBytes int64  `envconfig:"CATALOG_MAX_PHOTO_BYTES" default:"5242880"`
}

// StorefrontConfig tunes the storefront.
type StorefrontConfig struct {
	SessionSecret string `envconfig:"SESSION_SECRET" default:"change-me-in-production-please!"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// StoreOptions maps the storage section onto store.Options.
func (sc *StorageConfig) StoreOptions() store.Options {
	return store.Options{
		Driver:         sc.Driver,
		MemoryQuota:    sc.MemoryQuota,
		BoltPath:       sc.BoltPath,
		RedisAddr:      sc.Redis.Addr,
		RedisPassword:  sc.Redis.Password,
		RedisDB:        sc.Redis.DB,
		RedisPrefix:    sc.Redis.Prefix,
		PostgresDSN:    sc.Postgres.DSN(),
		MongoURI:       sc.Mongo.URI,
		MongoDBName:    sc.Mongo.DBName,
		ConnectTimeout: sc.ConnectTimeout,
	}
}

// LocaleTag parses CATALOG_LOCALE.
func (cc *CatalogConfig) LocaleTag() (language.Tag, error) {
	tag, err := language.Parse(cc.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid CATALOG_LOCALE %q: %w", cc.Locale, err)
	}
	return tag, nil
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	switch cfg.Storage.Driver {
	case store.DriverMemory, store.DriverBolt, store.DriverRedis, store.DriverPostgres, store.DriverMongo:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %q", cfg.Storage.Driver)
	}
	if _, err := cfg.Catalog.LocaleTag(); err != nil {
		return nil, err
	}
	// Photos are stored base64 encoded, a third larger than the upload.
	if encoded := base64.StdEncoding.EncodedLen(int(cfg.Catalog.MaxPhotoBytes)); cfg.Storage.MemoryQuota > 0 && cfg.Storage.MemoryQuota <= encoded {
		return nil, fmt.Errorf("MEMORY_QUOTA_BYTES (%d) must exceed the encoded size of a CATALOG_MAX_PHOTO_BYTES photo (%d)",
			cfg.Storage.MemoryQuota, encoded)
	}
	if cfg.AppEnv == "production" && len(cfg.Storefront.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}
	return &cfg, nil
}
