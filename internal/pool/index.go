package pool

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/splashpool/splashpool/internal/storage"
)

// IndexKey is the storage key of the pool metadata index, a JSON document
// holding the metadata the image filenames can't carry. It lives next to
// the image files so attribution and download times survive a restart.
const IndexKey = "images.json"

// loadIndex reads the metadata index from storage, keyed by image id.
// A missing index is not an error, directories written before the index
// existed rebuild their metadata from the filenames alone.
func loadIndex(ctx context.Context, store storage.Provider) (map[string]Image, error) {
	data, err := store.Get(ctx, IndexKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var images []Image
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, err
	}

	index := make(map[string]Image, len(images))
	for _, img := range images {
		index[img.ID] = img
	}

	return index, nil
}

// saveIndex writes the metadata index for the current pool content. The
// write is best effort, the image files stay the source of truth and the
// next insert catches up after a failed write.
func (p *Pool) saveIndex(ctx context.Context) {
	p.mu.Lock()
	images := make([]Image, len(p.images))
	for i, img := range p.images {
		images[i] = *img
	}
	p.mu.Unlock()

	data, err := json.Marshal(images)
	if err != nil {
		p.log.Warnw("error encoding pool index", "error", err)

		return
	}

	if err := p.storage.Put(ctx, IndexKey, data); err != nil {
		if p.metrics != nil {
			p.metrics.StoreErrors.Inc()
		}

		p.log.Warnw("error writing pool index", "key", IndexKey, "error", err)
	}
}
