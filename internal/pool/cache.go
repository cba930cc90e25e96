package pool

import (
	"context"

	"github.com/splashpool/splashpool/internal/cache"
	"github.com/splashpool/splashpool/internal/storage"
	"github.com/splashpool/splashpool/internal/tracing"
)

// newCache instantiates the image data cache sitting in front of storage
func newCache(tracer *tracing.Tracer, cacheProvider cache.Provider, storageProvider storage.Provider) *cache.Auto {
	return &cache.Auto{
		Tracer:   tracer,
		Provider: cacheProvider,
		Loader: func(ctx context.Context, key string) (data []byte, err error) {
			ctx, span := tracer.Start(ctx, "pool.Cache.Loader")
			defer span.End()

			return storageProvider.Get(ctx, key)
		},
	}
}
