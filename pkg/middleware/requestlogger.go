package middleware

import (
	"log/slog"
	"net/http"

	"github.com/arteza/studio/pkg/logger"
)

// SessionHeader is the request header carrying the shopper's session ID.
const SessionHeader = "X-Session-ID"

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// session_id, trace_id and span_id and stores it in the request context for
// logger.FromContext.
//
// Mount it after RequestLogging (which sets the correlation ID) and Tracing
// (which starts the span).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.SessionIDFromContext(ctx) == "" {
				if sid := r.Header.Get(SessionHeader); sid != "" {
					ctx = logger.WithSessionID(ctx, sid)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
