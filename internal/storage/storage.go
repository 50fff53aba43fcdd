// Package storage provides the durable string key-value backends that the
// response cache persists its blob into.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// KV is an async-style string store: get, set and remove by key.
type KV interface {
	// Get returns the value stored under key. found is false when the key
	// does not exist; that is not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key succeeds.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Driver     string
	SQLitePath string
	S3         S3Config
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
