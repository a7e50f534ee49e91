package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// BlobStore stores file contents keyed by the file's UUID.
type BlobStore interface {
	// Put stores the content under id, overwriting any existing blob.
	Put(ctx context.Context, id string, content io.Reader, contentType string) error

	// Get returns a reader for the blob. The caller must close it.
	Get(ctx context.Context, id string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the backend is reachable and writable.
	HealthCheck(ctx context.Context) error
}

// Config for storage backends
type Config struct {
	Type string // "filesystem" or "s3"

	// Filesystem config
	FilesystemRoot string

	// PostgreSQL config
	PostgresURL         string
	PostgresReplicaURLs string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Redis config
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:             "filesystem",
		FilesystemRoot:   "/var/lib/organizator/files",
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		RedisDB:          0,
		RedisMaxRetries:  3,
		RedisPoolSize:    10,
	}
}

// NewBlobStore creates the blob store selected by cfg.Type.
func NewBlobStore(cfg Config) (BlobStore, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFilesystemStore(cfg.FilesystemRoot)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
