package health

import (
	"context"
	"sync"
	"time"

	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/storage"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

// Worker reports the state of the background download worker
type Worker interface {
	Running() bool
	Images() int
}

// Checker is a periodic health checker
type Checker struct {
	Ctx     context.Context
	Storage storage.Provider
	Worker  Worker
	status  Status
	mutex   sync.RWMutex
	Log     *logger.Logger
}

// Status contains the healthcheck status
type Status struct {
	Healthy bool   `json:"healthy"`
	Storage string `json:"storage,omitempty"`
	Worker  string `json:"worker,omitempty"`
	Images  int    `json:"images"`
}

// Run starts the health checker
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the health checks
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go func() {
		c.check(ctx, channel)
	}()

	select {
	case <-ctx.Done():
		c.mutex.Lock()

		c.status = Status{
			Healthy: false,
		}
		if c.Storage != nil {
			c.status.Storage = "unknown"
		}
		if c.Worker != nil {
			c.status.Worker = "unknown"
		}

		c.mutex.Unlock()
		c.Log.Errorw("healthcheck timed out")
	case status, ok := <-channel:
		if !ok {
			return
		}

		c.mutex.Lock()
		c.status = status
		c.mutex.Unlock()
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

func (c *Checker) check(ctx context.Context, channel chan Status) {
	defer close(channel)

	if ctx.Err() != nil {
		return
	}

	status := Status{
		Healthy: true,
	}

	if c.Storage != nil {
		if _, err := c.Storage.List(ctx); err != nil {
			status.Healthy = false
			status.Storage = "unhealthy"
		} else {
			status.Storage = "healthy"
		}
	}

	if ctx.Err() != nil {
		return
	}

	// A stopped worker and an empty pool are valid states, they are
	// reported but don't make the service unhealthy
	if c.Worker != nil {
		if c.Worker.Running() {
			status.Worker = "running"
		} else {
			status.Worker = "stopped"
		}

		status.Images = c.Worker.Images()
	}

	channel <- status
}
