package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver for database/sql
	"github.com/redis/go-redis/v9"
)

// Supported values for Options.Driver.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Options selects and parameterizes a storage medium.
type Options struct {
	Driver string

	MemoryQuota int

	BoltPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresDSN string

	MongoURI    string
	MongoDBName string

	ConnectTimeout time.Duration
}

// Open builds the KeyValueStorer named by opts.Driver and verifies it is reachable.
func Open(ctx context.Context, opts Options) (KeyValueStorer, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(opts.MemoryQuota), nil

	case DriverBolt:
		return OpenBoltStore(opts.BoltPath)

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		s := NewRedisStore(client, opts.RedisPrefix)
		if err := pingWithTimeout(ctx, s, opts.ConnectTimeout); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("store: failed to ping redis: %w", err)
		}
		return s, nil

	case DriverPostgres:
		db, err := sql.Open("postgres", opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("store: failed to initialize database connection: %w", err)
		}
		s := NewPostgresStore(db)
		if err := pingWithTimeout(ctx, s, opts.ConnectTimeout); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("store: failed to ping database: %w", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil

	case DriverMongo:
		client, err := NewMongoConnection(ctx, opts.MongoURI, opts.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, opts.MongoDBName), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func pingWithTimeout(ctx context.Context, s KeyValueStorer, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Ping(ctx)
}
