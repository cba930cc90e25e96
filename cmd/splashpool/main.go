package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/splashpool/splashpool/internal/api"
	"github.com/splashpool/splashpool/internal/cmd"
	"github.com/splashpool/splashpool/internal/downloader"
	"github.com/splashpool/splashpool/internal/metrics"
	"github.com/splashpool/splashpool/internal/photo/unsplash"
	"github.com/splashpool/splashpool/internal/tracing"

	"github.com/splashpool/splashpool/internal/cache"
	"github.com/splashpool/splashpool/internal/cache/memory"
	"github.com/splashpool/splashpool/internal/cache/redis"
	"github.com/splashpool/splashpool/internal/health"
	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/storage"
	fileStorage "github.com/splashpool/splashpool/internal/storage/file"
	"github.com/splashpool/splashpool/internal/storage/spaces"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"tailscale.com/tsnet"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", ":8081", "listen address for metrics and debug endpoints")
	rootURL       = flag.String("root-url", "http://localhost:8080", "root url")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Downloader
	topicList    = flag.String("topics", "nature", "comma-separated list of topics to fetch photos for")
	imageWidth   = flag.Int("image-width", 320, "width to request photos at")
	imageHeight  = flag.Int("image-height", 240, "height to request photos at")
	maxImages    = flag.Int("max-images", 0, "max number of images to keep, 0 derives the cap from the photo budget")
	pollInterval = flag.Duration("poll-interval", time.Second*10, "time to wait between photo fetches")
	fetchTimeout = flag.Duration("fetch-timeout", time.Second*30, "timeout for a single photo fetch")

	// Unsplash
	unsplashAccessKey  = flag.String("unsplash-access-key", "", "unsplash api access key")
	unsplashAppName    = flag.String("unsplash-app-name", "splashpool", "unsplash application name, used for attribution links")
	unsplashProduction = flag.Bool("unsplash-production", false, "whether the unsplash api access is production tier")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./images", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path-style addressing for the spaces endpoint")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use (memory, redis)")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "127.0.0.1:6379", "redis address")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")

	// Tracing
	tracingEnabled = flag.Bool("tracing", false, "enable opentelemetry tracing, configure the exporter through OTEL_ environment variables")

	// Tailscale
	tailscaleHostname = flag.String("tailscale-hostname", "", "serve the metrics and debug endpoints over the tailnet with this hostname instead of the metrics listen address")
	tailscaleAuthKey  = flag.String("tailscale-auth-key", "", "tailscale auth key")
)

func main() {
	// Parse environment variables
	envy.Parse("SPLASHPOOL")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize the tracer
	tracer, err := setupTracing(shutdownCtx, log)
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}

	// Initialize the storage, cache
	storage, cache, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	// Initialize the photo provider
	if *unsplashAccessKey == "" {
		log.Fatalf("an unsplash access key is required")
	}

	photoProvider := unsplash.New(log, nil, *unsplashAccessKey, *unsplashAppName, *unsplashProduction)

	// Initialize the downloader and scan the existing images
	poolMetrics := metrics.New()

	dl, err := downloader.New(shutdownCtx, downloader.Config{
		Topics:       strings.Split(*topicList, ","),
		Width:        *imageWidth,
		Height:       *imageHeight,
		MaxImages:    *maxImages,
		PollInterval: *pollInterval,
		FetchTimeout: *fetchTimeout,
	}, downloader.Dependencies{
		Provider: photoProvider,
		Storage:  storage,
		Cache:    cache,
		Tracer:   tracer,
		Metrics:  poolMetrics,
		Log:      log,
	})
	if err != nil {
		log.Fatalf("error initializing downloader: %s", err)
	}

	dl.Start()

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Storage: storage,
		Worker:  dl,
		Log:     log,
	}
	go checker.Run()

	// Serve metrics and debug endpoints separately from the api
	metricsListener, err := setupMetricsListener(log)
	if err != nil {
		log.Fatalf("error initializing metrics listener: %s", err)
	}

	go metrics.Serve(shutdownCtx, log, checker, metricsListener)

	// Start and listen on http
	api := &api.API{
		Downloader:     dl,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		RootURL:        *rootURL,
		HandlerTimeout: cmd.HandlerTimeout,
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
	defer serverCancel()
	if err := server.Shutdown(serverCtx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}

	// Stop the downloader worker
	dl.Stop()

	// Flush any pending traces
	tracer.Shutdown(serverCtx)
}

func setupTracing(ctx context.Context, log *logger.Logger) (*tracing.Tracer, error) {
	if !*tracingEnabled {
		return tracing.NewNoop(log), nil
	}

	return tracing.New(ctx, log, "splashpool")
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(*storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		cache = memory.New()
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}

// setupMetricsListener listens on the tailnet when a tailscale hostname is
// configured, keeping the metrics and debug endpoints off the public
// listen address
func setupMetricsListener(log *logger.Logger) (net.Listener, error) {
	if *tailscaleHostname != "" {
		srv := &tsnet.Server{
			Hostname: *tailscaleHostname,
			AuthKey:  *tailscaleAuthKey,
			Logf:     log.Debugf,
		}

		return srv.Listen("tcp", ":80")
	}

	return net.Listen("tcp", *metricsListen)
}
