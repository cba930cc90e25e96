package api

import (
	"net/http"
	"time"

	"github.com/splashpool/splashpool/internal/downloader"
	"github.com/splashpool/splashpool/internal/handler"
	"github.com/splashpool/splashpool/internal/health"
	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/tracing"
	"github.com/gorilla/mux"
)

// API is a http api
type API struct {
	Downloader     *downloader.Downloader
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	RootURL        string
	HandlerTimeout time.Duration
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Custom headers exposed over CORS
var exposedHeaders = []string{
	"Splashpool-ID",
	"Splashpool-Topic",
	"Splashpool-Attribution",
	"Link",
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Random image routes
	router.Handle("/image", handler.Handler(a.randomImageHandler)).Methods("GET")
	router.Handle("/seed/{seed}", handler.Handler(a.seedImageHandler)).Methods("GET")
	router.Handle("/topic/{topic}", handler.Handler(a.topicImageHandler)).Methods("GET")

	// Image by ID routes
	router.Handle("/id/{id}", handler.Handler(a.imageHandler)).Methods("GET")

	// Image info routes
	router.Handle("/id/{id}/info", handler.Handler(a.infoHandler)).Methods("GET")

	// Image list
	router.Handle("/list", handler.Handler(a.listHandler)).Methods("GET")

	// Query parameters:
	// ?page={page} - What page to display
	// ?limit={limit} - How many entries to display per page

	// Set up handlers for adding a request id, handling panics, request logging, metrics, tracing, setting CORS headers, and handler execution timeout
	rm := &handler.MuxRouteMatcher{Router: router}
	return handler.AddRequestID(handler.Recovery(a.Log, handler.Logger(a.Log, handler.Metrics(handler.Tracer(a.Tracer, handler.CORS(exposedHeaders, http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out.")), rm), rm))))
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}
