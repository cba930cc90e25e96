// Package pool tracks the downloaded images and backs them with storage
package pool

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/splashpool/splashpool/internal/cache"
	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/metrics"
	"github.com/splashpool/splashpool/internal/storage"
	"github.com/splashpool/splashpool/internal/tracing"
)

// Image contains metadata about an image in the pool
type Image struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Attribution  string    `json:"attribution"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Key returns the storage key for the image
func (i *Image) Key() string {
	return Key(i.Topic, i.ID)
}

// Pool holds the images available for serving, oldest first. Image data
// lives in the storage backend, the pool itself only keeps metadata.
type Pool struct {
	log     *logger.Logger
	tracer  *tracing.Tracer
	storage storage.Provider
	cache   *cache.Auto
	metrics *metrics.Metrics
	max     int

	mu     sync.Mutex
	random *rand.Rand
	images []*Image
	byID   map[string]*Image
}

// New returns a Pool tracking the images already present in the storage
// backend. Existing images are trusted as-is and ordered oldest first by
// their modification time, images beyond the cap are evicted right away.
// Metadata the filenames can't carry comes from the index document.
// A max of zero means the pool is uncapped.
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, storageProvider storage.Provider, cacheProvider cache.Provider, poolMetrics *metrics.Metrics, max int) (*Pool, error) {
	p := &Pool{
		log:     log,
		tracer:  tracer,
		storage: storageProvider,
		cache:   newCache(tracer, cacheProvider, storageProvider),
		metrics: poolMetrics,
		max:     max,
		random:  rand.New(rand.NewSource(time.Now().UnixNano())),
		byID:    make(map[string]*Image),
	}

	index, err := loadIndex(ctx, storageProvider)
	if err != nil {
		log.Warnw("error reading pool index, metadata comes from filenames", "error", err)
	}

	objects, err := storageProvider.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ModTime.Before(objects[j].ModTime)
	})

	evictions := 0
	for _, object := range objects {
		if object.Key == IndexKey {
			continue
		}

		topic, id, err := ParseKey(object.Key)
		if err != nil {
			log.Warnw("skipping object with unexpected key", "key", object.Key)
			continue
		}

		img := &Image{
			ID:           id,
			Topic:        topic,
			DownloadedAt: object.ModTime,
		}

		if meta, ok := index[id]; ok {
			img.Attribution = meta.Attribution
			if !meta.DownloadedAt.IsZero() {
				img.DownloadedAt = meta.DownloadedAt
			}
		}

		replaced, evicted := p.insertLocked(img)
		if replaced != nil {
			p.drop(ctx, replaced, img.Key())
		}

		for _, victim := range evicted {
			p.drop(ctx, victim, img.Key())
		}

		evictions += len(evicted)
	}

	if p.metrics != nil {
		p.metrics.PoolImages.Set(float64(len(p.images)))
		p.metrics.Evictions.Add(float64(evictions))
	}

	log.Infof("loaded %d images from storage", len(p.images))

	return p, nil
}

// Insert adds a downloaded image to the pool. The image data goes to
// storage first, the pool only tracks images whose data is safely stored.
// When the pool is full the oldest image makes room for the new one.
// Every insert rewrites the metadata index, dropping entries for images
// that have left the pool.
func (p *Pool) Insert(ctx context.Context, id, topic, attribution string, data []byte) error {
	ctx, span := p.tracer.Start(ctx, "pool.Insert")
	defer span.End()

	img := &Image{
		ID:           id,
		Topic:        SanitizeTopic(topic),
		Attribution:  attribution,
		DownloadedAt: time.Now(),
	}

	if err := p.storage.Put(ctx, img.Key(), data); err != nil {
		if p.metrics != nil {
			p.metrics.StoreErrors.Inc()
		}

		return err
	}

	p.mu.Lock()
	replaced, evicted := p.insertLocked(img)
	count := len(p.images)
	p.mu.Unlock()

	if replaced != nil {
		p.drop(ctx, replaced, img.Key())
		p.log.Debugw("replaced image", "id", img.ID, "key", img.Key())
	}

	for _, victim := range evicted {
		p.drop(ctx, victim, img.Key())
		p.log.Infow("evicted oldest image", "key", victim.Key())
	}

	p.saveIndex(ctx)

	if p.metrics != nil {
		p.metrics.PoolImages.Set(float64(count))
		p.metrics.Evictions.Add(float64(len(evicted)))
	}

	return nil
}

// insertLocked adds an image to the pool, replacing any existing entry
// with the same id and evicting the oldest entries beyond the cap.
// Callers must hold the mutex.
func (p *Pool) insertLocked(img *Image) (replaced *Image, evicted []*Image) {
	if old, ok := p.byID[img.ID]; ok {
		p.removeLocked(old)
		replaced = old
	}

	p.images = append(p.images, img)
	p.byID[img.ID] = img

	if p.max > 0 {
		for len(p.images) > p.max {
			victim := p.images[0]
			p.removeLocked(victim)
			evicted = append(evicted, victim)
		}
	}

	return replaced, evicted
}

// removeLocked removes an image from the pool if it is still a member.
// Callers must hold the mutex.
func (p *Pool) removeLocked(img *Image) {
	if current, ok := p.byID[img.ID]; !ok || current != img {
		return
	}

	delete(p.byID, img.ID)

	for i, current := range p.images {
		if current == img {
			p.images = append(p.images[:i], p.images[i+1:]...)
			break
		}
	}
}

// drop removes an image's backing data from storage and cache. The fresh
// key is spared so that replacing an image under the same key never
// deletes the new data.
func (p *Pool) drop(ctx context.Context, img *Image, freshKey string) {
	key := img.Key()
	if key != freshKey {
		if err := p.storage.Delete(ctx, key); err != nil {
			p.log.Warnw("error deleting image from storage", "key", key, "error", err)
		}
	}

	if err := p.cache.Del(ctx, key); err != nil {
		p.log.Warnw("error dropping image from cache", "key", key, "error", err)
	}
}

// Get returns the image data for a pool image, going through the cache.
// An image whose backing data has gone missing leaves the pool, so a
// damaged storage backend heals over time instead of serving errors for
// the same image forever.
func (p *Pool) Get(ctx context.Context, img *Image) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "pool.Get")
	defer span.End()

	data, err := p.cache.Get(ctx, img.Key())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			p.mu.Lock()
			p.removeLocked(img)
			count := len(p.images)
			p.mu.Unlock()

			if p.metrics != nil {
				p.metrics.PoolImages.Set(float64(count))
			}

			p.log.Warnw("dropping image with missing data", "key", img.Key())

			return nil, ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

// Random returns a random image from the pool
func (p *Pool) Random() (*Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.images) == 0 {
		return nil, ErrNotFound
	}

	return p.images[p.random.Intn(len(p.images))], nil
}

// RandomWithSeed returns a random image, deterministic for a given seed
// and pool content
func (p *Pool) RandomWithSeed(seed int64) (*Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.images) == 0 {
		return nil, ErrNotFound
	}

	random := rand.New(rand.NewSource(seed))

	return p.images[random.Intn(len(p.images))], nil
}

// RandomByTopic returns a random image fetched for the given topic
func (p *Pool) RandomByTopic(topic string) (*Image, error) {
	topic = SanitizeTopic(topic)

	p.mu.Lock()
	defer p.mu.Unlock()

	var matching []*Image
	for _, img := range p.images {
		if img.Topic == topic {
			matching = append(matching, img)
		}
	}

	if len(matching) == 0 {
		return nil, ErrNotFound
	}

	return matching[p.random.Intn(len(matching))], nil
}

// Lookup returns the image with the given id
func (p *Pool) Lookup(id string) (*Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	img, ok := p.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	return img, nil
}

// List returns images in oldest first order with an offset/limit
func (p *Pool) List(offset, limit int) []Image {
	p.mu.Lock()
	defer p.mu.Unlock()

	images := len(p.images)
	if offset > images {
		offset = images
	}

	limit = offset + limit
	if limit > images {
		limit = images
	}

	list := make([]Image, 0, limit-offset)
	for _, img := range p.images[offset:limit] {
		list = append(list, *img)
	}

	return list
}

// Len returns the number of images in the pool
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.images)
}

// Errors
var (
	ErrNotFound = errors.New("Image does not exist")
)
