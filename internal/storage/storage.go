package storage

import (
	"context"
	"errors"

	"golang.org/x/xerrors"
)

var ErrNotFound = errors.New("artifact not found")

type Storage interface {
	// Put stores data with the given key and returns the storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves the data stored with the given key. It returns an error
	// wrapping ErrNotFound when nothing is stored there.
	Get(ctx context.Context, key string) ([]byte, error)
}

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	// Backend is either "file" or "s3".
	Backend   string
	Directory string
	Bucket    string
	Prefix    string
}

func New(ctx context.Context, c Config) (Storage, error) {
	switch c.Backend {
	case "file", "":
		return NewFileStorage(ctx, FileConfig{Directory: c.Directory})
	case "s3":
		return NewS3Storage(ctx, S3Config{Bucket: c.Bucket, Prefix: c.Prefix})
	default:
		return nil, xerrors.Errorf("%q: %w", c.Backend, ErrUnknownBackend)
	}
}
