package photo

import (
	"context"
	"errors"
	"time"
)

// Image is a photo fetched from a provider
type Image struct {
	ID          string
	Topic       string
	Attribution string
	Data        []byte
}

// RateLimit describes how many photos a provider allows fetching per time window.
// Providers that spend more than one api request per photo declare the
// effective photo budget, not the raw request budget.
type RateLimit struct {
	Calls  int
	Window time.Duration
}

// Provider is an interface for fetching random photos from a remote api
type Provider interface {
	Random(ctx context.Context, topic string, width, height int) (*Image, error)
	RateLimit() RateLimit
}

// Errors
var (
	ErrNotFound = errors.New("no photo found for the given topic")
)
