package api

import (
	"fmt"
	"net/http"

	"github.com/splashpool/splashpool/internal/handler"
	"github.com/splashpool/splashpool/internal/pool"
	"github.com/gorilla/mux"
	"github.com/twmb/murmur3"
)

func (a *API) randomImageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	image, err := a.Downloader.Pool().Random()
	if err != nil {
		return a.poolError(r, err, "error getting random image from pool")
	}

	return a.serveImage(w, r, image, "no-cache, no-store, must-revalidate")
}

func (a *API) seedImageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	vars := mux.Vars(r)
	imageSeed := vars["seed"]

	// Hash the input using murmur3
	murmurHash := murmur3.StringSum64(imageSeed)

	image, err := a.Downloader.Pool().RandomWithSeed(int64(murmurHash))
	if err != nil {
		return a.poolError(r, err, "error getting random image from pool")
	}

	return a.serveImage(w, r, image, "no-cache, no-store, must-revalidate")
}

func (a *API) topicImageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	vars := mux.Vars(r)
	topic := vars["topic"]

	image, err := a.Downloader.Pool().RandomByTopic(topic)
	if err != nil {
		return a.poolError(r, err, "error getting random image for topic")
	}

	return a.serveImage(w, r, image, "no-cache, no-store, must-revalidate")
}

func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	vars := mux.Vars(r)
	imageID := vars["id"]

	image, err := a.Downloader.Pool().Lookup(imageID)
	if err != nil {
		return a.poolError(r, err, "error getting image from pool")
	}

	return a.serveImage(w, r, image, "public, max-age=3600") // Cache for an hour
}

func (a *API) serveImage(w http.ResponseWriter, r *http.Request, image *pool.Image, cacheControl string) *handler.Error {
	data, err := a.Downloader.Pool().Get(r.Context(), image)
	if err != nil {
		return a.poolError(r, err, "error getting image data")
	}

	// Set the headers
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", image.Key()))
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Splashpool-ID", image.ID)
	w.Header().Set("Splashpool-Topic", image.Topic)
	if image.Attribution != "" {
		w.Header().Set("Splashpool-Attribution", image.Attribution)
	}

	// Return the image
	w.Write(data)

	return nil
}

// poolError maps pool errors to handler errors
func (a *API) poolError(r *http.Request, err error, message string) *handler.Error {
	if err == pool.ErrNotFound {
		return &handler.Error{Message: err.Error(), Code: http.StatusNotFound}
	}

	a.logError(r, message, err)
	return handler.InternalServerError()
}
