// Package mock provides a mock storage.Provider
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/splashpool/splashpool/internal/storage"
)

// Provider implements an in-memory image storage. Objects get modification
// times one second apart in insertion order, so tests can rely on a stable
// oldest-first ordering.
type Provider struct {
	// PutErr, GetErr, DeleteErr and ListErr make the matching operation fail
	PutErr    error
	GetErr    error
	DeleteErr error
	ListErr   error

	mu      sync.Mutex
	objects map[string]object
	now     time.Time
}

type object struct {
	data    []byte
	modTime time.Time
}

// New returns an empty Provider
func New() *Provider {
	return &Provider{
		objects: make(map[string]object),
		now:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Put stores the image data for a key
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	if p.PutErr != nil {
		return p.PutErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.now = p.now.Add(time.Second)
	p.objects[key] = object{
		data:    append([]byte(nil), data...),
		modTime: p.now,
	}

	return nil
}

// Get returns the image data for a key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	if p.GetErr != nil {
		return nil, p.GetErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return append([]byte(nil), obj.data...), nil
}

// Delete removes the image data for a key
func (p *Provider) Delete(ctx context.Context, key string) error {
	if p.DeleteErr != nil {
		return p.DeleteErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.objects, key)

	return nil
}

// List returns all stored objects sorted by key
func (p *Provider) List(ctx context.Context) ([]storage.Object, error) {
	if p.ListErr != nil {
		return nil, p.ListErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	objects := make([]storage.Object, 0, len(p.objects))
	for key, obj := range p.objects {
		objects = append(objects, storage.Object{
			Key:     key,
			Size:    int64(len(obj.data)),
			ModTime: obj.modTime,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	return objects, nil
}
