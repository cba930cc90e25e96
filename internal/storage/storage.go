package storage

import (
	"context"
	"errors"
	"time"
)

// Provider is an interface for storing and retrieving images
type Provider interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Object, error)
}

// Object describes a stored image
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Errors
var (
	ErrNotFound = errors.New("Image does not exist")
)
