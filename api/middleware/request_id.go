package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/types"
)

const maxRequestIDLen = 128

// RequestID echoes the caller's X-Request-Id or mints a new one and binds it
// to the request logger context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(types.RequestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}
			w.Header().Set(types.RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
