package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/splashpool/splashpool/internal/pool"
	fileStorage "github.com/splashpool/splashpool/internal/storage/file"
)

// Comandline flags
var (
	imagePath    = flag.String("image-path", "./images", "path to the image directory")
	manifestPath = flag.String("manifest-path", "", "path to write the manifest to, writes to stdout when empty")
)

// ManifestImage describes one stored image
type ManifestImage struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Size         int64     `json:"size"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func main() {
	flag.Parse()

	// The storage provider creates missing directories, a missing image
	// path should be an error here instead
	if _, err := os.Stat(*imagePath); err != nil {
		log.Fatal(err)
	}

	storage, err := fileStorage.New(*imagePath)
	if err != nil {
		log.Fatal(err)
	}

	objects, err := storage.List(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	manifest := []ManifestImage{}
	for _, object := range objects {
		if object.Key == pool.IndexKey {
			continue
		}

		topic, id, err := pool.ParseKey(object.Key)
		if err != nil {
			log.Printf("skipping %s: %s", object.Key, err)
			continue
		}

		manifest = append(manifest, ManifestImage{
			ID:           id,
			Topic:        topic,
			Size:         object.Size,
			DownloadedAt: object.ModTime,
		})
	}

	out := os.Stdout
	if *manifestPath != "" {
		file, err := os.Create(*manifestPath)
		if err != nil {
			log.Fatal(err)
		}
		defer file.Close()

		out = file
	}

	encoder := json.NewEncoder(out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(manifest); err != nil {
		log.Fatal(err)
	}
}
