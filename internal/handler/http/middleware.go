package http

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arteza/studio/internal/notify"
	"github.com/arteza/studio/pkg/logger"
	"github.com/arteza/studio/pkg/middleware"
)

// SessionCookie is the cookie carrying the shopper's session ID.
const SessionCookie = "arteza_session"

// sessionIDPattern accepts uuids and other opaque url-safe tokens.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionConfig controls the session cookie.
type SessionConfig struct {
	// MaxAge is the cookie lifetime. Zero makes it a browser-session cookie.
	MaxAge time.Duration
	Secure bool
}

// Session resolves the shopper's session from the X-Session-ID header or the
// session cookie, minting a new uuid when neither carries a usable value.
// The resolved ID is echoed in the response header and cookie.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := r.Header.Get(middleware.SessionHeader)
			if !sessionIDPattern.MatchString(sid) {
				sid = ""
				if c, err := r.Cookie(SessionCookie); err == nil && sessionIDPattern.MatchString(c.Value) {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.New().String()
			}

			cookie := &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if cfg.MaxAge > 0 {
				cookie.MaxAge = int(cfg.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(middleware.SessionHeader, sid)

			ctx := context.WithValue(r.Context(), sessionIDKey, sid)
			ctx = logger.WithSessionID(ctx, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionIDFromContext returns the session resolved by Session.
func sessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDKey).(string)
	return sid, ok && sid != ""
}

// Notices attaches a fresh notify.Recorder to every request so the cart
// notices raised while serving it can be returned in the response.
func Notices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := notify.WithRecorder(r.Context(), &notify.Recorder{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
