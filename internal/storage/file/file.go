package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/splashpool/splashpool/internal/storage"
)

// Provider implements a file-based image storage
type Provider struct {
	path string
}

// New returns a new Provider instance, creating the directory if needed
func New(path string) (*Provider, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	return &Provider{
		path,
	}, nil
}

// Put writes the image data for a key. The data goes to a temporary file
// first so that readers never observe a partial image.
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(p.path, key)
	tmp := fmt.Sprintf("%s.tmp", path)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// Get returns the image data for a key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	imageData, err := os.ReadFile(filepath.Join(p.path, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return imageData, nil
}

// Delete removes the image data for a key. Deleting a key that does not
// exist is not an error.
func (p *Provider) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(p.path, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// List returns all stored objects, skipping leftover temporary files
func (p *Provider) List(ctx context.Context) ([]storage.Object, error) {
	entries, err := os.ReadDir(p.path)
	if err != nil {
		return nil, err
	}

	var objects []storage.Object
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return nil, err
		}

		objects = append(objects, storage.Object{
			Key:     entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return objects, nil
}
