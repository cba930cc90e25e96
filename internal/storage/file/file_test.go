package file_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"

	"github.com/splashpool/splashpool/internal/storage"
	"github.com/splashpool/splashpool/internal/storage/file"

	"testing"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	provider, err := file.New(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Put and get an image", func(t *testing.T) {
		if err := provider.Put(ctx, "nature_foo.jpg", []byte("image data")); err != nil {
			t.Fatal(err)
		}

		buf, err := provider.Get(ctx, "nature_foo.jpg")
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(buf, []byte("image data")) {
			t.Error("image data doesn't match")
		}
	})

	t.Run("Put replaces an existing image", func(t *testing.T) {
		if err := provider.Put(ctx, "nature_foo.jpg", []byte("new data")); err != nil {
			t.Fatal(err)
		}

		buf, err := provider.Get(ctx, "nature_foo.jpg")
		if err != nil {
			t.Fatal(err)
		}

		if string(buf) != "new data" {
			t.Error("image data doesn't match")
		}
	})

	t.Run("Returns error on a nonexistant image", func(t *testing.T) {
		_, err := provider.Get(ctx, "nonexistant.jpg")
		if err != storage.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})

	t.Run("Delete removes an image", func(t *testing.T) {
		if err := provider.Put(ctx, "city_bar.jpg", []byte("data")); err != nil {
			t.Fatal(err)
		}

		if err := provider.Delete(ctx, "city_bar.jpg"); err != nil {
			t.Fatal(err)
		}

		if _, err := provider.Get(ctx, "city_bar.jpg"); err != storage.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		if err := provider.Delete(ctx, "city_bar.jpg"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("List returns the stored objects", func(t *testing.T) {
		objects, err := provider.List(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if len(objects) != 1 {
			t.Fatalf("wrong number of objects %d", len(objects))
		}

		object := objects[0]
		if object.Key != "nature_foo.jpg" {
			t.Errorf("wrong key %s", object.Key)
		}

		if object.Size != int64(len("new data")) {
			t.Errorf("wrong size %d", object.Size)
		}

		if object.ModTime.IsZero() {
			t.Error("missing modtime")
		}
	})

	t.Run("List skips temporary files", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "images", "leftover.jpg.tmp"), []byte("partial"), 0644); err != nil {
			t.Fatal(err)
		}

		objects, err := provider.List(ctx)
		if err != nil {
			t.Fatal(err)
		}

		for _, object := range objects {
			if object.Key == "leftover.jpg.tmp" {
				t.Error("temporary file listed")
			}
		}
	})

	t.Run("Creates the directory", func(t *testing.T) {
		path := filepath.Join(dir, "new", "nested")
		if _, err := file.New(path); err != nil {
			t.Fatal(err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Returns error on an invalid path", func(t *testing.T) {
		if _, err := file.New(""); err == nil {
			t.FailNow()
		}
	})
}
