package downloader

import (
	"context"
	"time"

	"github.com/splashpool/splashpool/internal/pool"
)

// run is the worker loop, fetching one photo per poll interval for as
// long as the photo budget lasts
func (d *Downloader) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if err := d.waitForSlot(ctx); err != nil {
			return
		}

		d.fetchOne(ctx, d.rotation.Next())

		if err := sleep(ctx, d.cfg.PollInterval); err != nil {
			return
		}
	}
}

// waitForSlot blocks until the rate limiter grants a slot or the context
// is canceled
func (d *Downloader) waitForSlot(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.limiter.TryAcquire() {
			if d.metrics != nil {
				d.metrics.QuotaRemaining.Set(float64(d.limiter.Remaining()))
			}

			return nil
		}

		wait := time.Until(d.limiter.NextSlot())
		if wait < time.Second {
			wait = time.Second
		}

		d.log.Debugw("photo budget exhausted", "wait", wait)

		if d.metrics != nil {
			d.metrics.QuotaRemaining.Set(0)
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// fetchOne downloads a single photo for a topic and inserts it into the
// pool. Errors are absorbed, a failed fetch costs its budget slot and the
// worker moves on.
func (d *Downloader) fetchOne(ctx context.Context, topic string) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "downloader.fetchOne")
	defer span.End()

	// Metric labels carry the sanitized topic, matching the pool's keys
	label := pool.SanitizeTopic(topic)

	img, err := d.provider.Random(ctx, topic, d.cfg.Width, d.cfg.Height)
	if err != nil {
		d.log.Warnw("error fetching photo", "topic", topic, "error", err)

		if d.metrics != nil {
			d.metrics.FetchErrors.WithLabelValues(label).Inc()
		}

		return
	}

	if err := d.pool.Insert(ctx, img.ID, img.Topic, img.Attribution, img.Data); err != nil {
		d.log.Warnw("error storing photo", "topic", topic, "id", img.ID, "error", err)

		return
	}

	if d.metrics != nil {
		d.metrics.Downloads.WithLabelValues(label).Inc()
	}

	d.log.Infow("downloaded photo", "topic", topic, "id", img.ID, "bytes", len(img.Data))
}

// sleep waits for the given duration unless the context ends first
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
