package handler

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS is a handler for setting CORS headers, allowing GET requests from anywhere
func CORS(exposedHeaders []string, next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		ExposedHeaders: exposedHeaders,
	})

	return c.Handler(next)
}
