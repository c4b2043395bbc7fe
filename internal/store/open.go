package store

import (
	"context"
	"fmt"
	"strings"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverMongo  Driver = "mongo"
	DriverRedis  Driver = "redis"
	DriverMemory Driver = "memory"
)

// ParseDriver validates a driver name, case-insensitively.
func ParseDriver(raw string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(raw))); d {
	case DriverSQLite, DriverMongo, DriverRedis, DriverMemory:
		return d, nil
	case "":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unknown store driver %q", raw)
	}
}

// Options selects and configures a backend.
type Options struct {
	Driver        Driver
	SQLitePath    string
	MongoURL      string
	MongoDatabase string
	RedisURL      string
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteStore(opts.SQLitePath)
	case DriverMongo:
		return NewMongoStore(ctx, opts.MongoURL, opts.MongoDatabase)
	case DriverRedis:
		return NewRedisStore(ctx, opts.RedisURL)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
