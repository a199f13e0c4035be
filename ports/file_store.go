package ports

import (
	"context"
	"io"
)

// FileStore persists exported files under slash-separated keys
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
