package memory_test

import (
	"context"
	"testing"

	"github.com/splashpool/splashpool/internal/cache"
	"github.com/splashpool/splashpool/internal/cache/memory"
)

func TestMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := memory.New()

	t.Run("get item", func(t *testing.T) {
		// Add item to the cache
		provider.Set(ctx, "foo", []byte("bar"))

		// Get item from the cache
		data, err := provider.Get(ctx, "foo")
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "bar" {
			t.Fatal("wrong data")
		}
	})

	t.Run("get nonexistant item", func(t *testing.T) {
		_, err := provider.Get(ctx, "notfound")
		if err == nil {
			t.Fatal("no error")
		}

		if err != cache.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})

	t.Run("del item", func(t *testing.T) {
		provider.Set(ctx, "baz", []byte("qux"))

		if err := provider.Del(ctx, "baz"); err != nil {
			t.Fatal(err)
		}

		if _, err := provider.Get(ctx, "baz"); err != cache.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})
}
