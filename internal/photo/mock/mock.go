// Package mock provides a mock photo.Provider
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/splashpool/splashpool/internal/photo"
)

// ErrFetch is returned by Random while failures are configured
var ErrFetch = errors.New("mock fetch failed")

// Provider implements a photo.Provider serving synthetic photos
type Provider struct {
	// Limit is the budget reported by RateLimit, the zero value defaults
	// to 10 photos per hour
	Limit photo.RateLimit

	// Fails makes the next n Random calls fail with Err, a negative
	// value fails forever
	Fails int

	// Err overrides the error returned for failing calls
	Err error

	mu      sync.Mutex
	fetches int
}

// Random returns a synthetic photo with an id unique to this provider
func (p *Provider) Random(ctx context.Context, topic string, width, height int) (*photo.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Fails != 0 {
		if p.Fails > 0 {
			p.Fails--
		}

		if p.Err != nil {
			return nil, p.Err
		}

		return nil, ErrFetch
	}

	p.fetches++

	return &photo.Image{
		ID:          fmt.Sprintf("%s-%d", topic, p.fetches),
		Topic:       topic,
		Attribution: fmt.Sprintf("Photo by mock photographer %d", p.fetches),
		Data:        []byte(fmt.Sprintf("%dx%d photo %d", width, height, p.fetches)),
	}, nil
}

// RateLimit returns the configured photo budget
func (p *Provider) RateLimit() photo.RateLimit {
	if p.Limit.Calls == 0 {
		return photo.RateLimit{Calls: 10, Window: time.Hour}
	}

	return p.Limit
}

// Fetches returns the number of photos served so far
func (p *Provider) Fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.fetches
}
