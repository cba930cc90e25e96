// Package downloader runs the background worker that keeps the image
// pool filled
package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/splashpool/splashpool/internal/cache"
	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/metrics"
	"github.com/splashpool/splashpool/internal/photo"
	"github.com/splashpool/splashpool/internal/pool"
	"github.com/splashpool/splashpool/internal/ratelimit"
	"github.com/splashpool/splashpool/internal/storage"
	"github.com/splashpool/splashpool/internal/topics"
	"github.com/splashpool/splashpool/internal/tracing"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultFetchTimeout = 30 * time.Second
	defaultWidth        = 320
	defaultHeight       = 240
)

// ErrInvalidConfig marks configuration validation errors
var ErrInvalidConfig = errors.New("invalid downloader config")

// Config holds the downloader settings
type Config struct {
	// Topics are fetched in round robin order
	Topics []string

	// Width and Height are the requested image dimensions, zero values
	// default to 320x240
	Width  int
	Height int

	// MaxImages caps the pool. A zero cap derives from the provider's
	// photo budget, so one full window of downloads fits exactly.
	MaxImages int

	// PollInterval is the pause between fetches, zero defaults to 10s
	PollInterval time.Duration

	// FetchTimeout bounds a single photo fetch, zero defaults to 30s
	FetchTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: image dimensions must not be negative", ErrInvalidConfig)
	}

	if c.MaxImages < 0 {
		return fmt.Errorf("%w: max images must not be negative", ErrInvalidConfig)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrInvalidConfig)
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch timeout must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Dependencies are the collaborators the downloader needs
type Dependencies struct {
	Provider photo.Provider
	Storage  storage.Provider
	Cache    cache.Provider
	Tracer   *tracing.Tracer
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// Downloader keeps the image pool filled by periodically fetching photos
// for the configured topics, staying within the provider's photo budget
type Downloader struct {
	cfg      Config
	provider photo.Provider
	pool     *pool.Pool
	limiter  *ratelimit.Limiter
	rotation *topics.Rotation
	tracer   *tracing.Tracer
	metrics  *metrics.Metrics
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New validates the config and prepares a stopped Downloader. The pool is
// scanned from storage right away, so images from earlier runs are served
// even before the first fetch.
func New(ctx context.Context, cfg Config, deps Dependencies) (*Downloader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rotation, err := topics.New(cfg.Topics)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	if cfg.Width == 0 {
		cfg.Width = defaultWidth
	}

	if cfg.Height == 0 {
		cfg.Height = defaultHeight
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}

	limit := deps.Provider.RateLimit()
	if limit.Calls <= 0 || limit.Window <= 0 {
		return nil, fmt.Errorf("%w: provider declares an unusable photo budget of %d per %s", ErrInvalidConfig, limit.Calls, limit.Window)
	}

	if cfg.MaxImages == 0 {
		cfg.MaxImages = limit.Calls
	}

	imagePool, err := pool.New(ctx, deps.Log, deps.Tracer, deps.Storage, deps.Cache, deps.Metrics, cfg.MaxImages)
	if err != nil {
		return nil, err
	}

	return &Downloader{
		cfg:      cfg,
		provider: deps.Provider,
		pool:     imagePool,
		limiter:  ratelimit.New(limit.Calls, limit.Window),
		rotation: rotation,
		tracer:   deps.Tracer,
		metrics:  deps.Metrics,
		log:      deps.Log,
	}, nil
}

// Start launches the background worker. Starting a running Downloader is
// a no-op.
func (d *Downloader) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.run(ctx, d.done)

	d.log.Infow("downloader started",
		"topics", d.rotation.Topics(),
		"poll-interval", d.cfg.PollInterval,
		"max-images", d.cfg.MaxImages,
	)
}

// Stop halts the worker and waits for an in-flight fetch to finish.
// Stopping a stopped Downloader is a no-op.
func (d *Downloader) Stop() {
	d.mu.Lock()

	if !d.running {
		d.mu.Unlock()
		return
	}

	d.running = false
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	cancel()
	<-done

	d.log.Info("downloader stopped")
}

// Running reports whether the background worker is active
func (d *Downloader) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.running
}

// Images returns the number of images currently in the pool
func (d *Downloader) Images() int {
	return d.pool.Len()
}

// RandomImage returns a random downloaded image along with its data
func (d *Downloader) RandomImage(ctx context.Context) (*pool.Image, []byte, error) {
	img, err := d.pool.Random()
	if err != nil {
		return nil, nil, err
	}

	data, err := d.pool.Get(ctx, img)
	if err != nil {
		return nil, nil, err
	}

	return img, data, nil
}

// Pool exposes the underlying image pool
func (d *Downloader) Pool() *pool.Pool {
	return d.pool
}
