package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/florezcook/orders-backend/pkg/types"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS applies the allowed origin policy. An empty list falls back to the
// local development origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", idempotencyHeader, types.RequestIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{types.RequestIDHeader, "Content-Disposition", replayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
