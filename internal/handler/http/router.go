package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arteza/studio/internal/service"
	"github.com/arteza/studio/pkg/health"
	"github.com/arteza/studio/pkg/middleware"
)

// serviceName labels metrics and spans.
const serviceName = "studio"

// Services bundles the business services the router exposes.
type Services struct {
	Cart    *service.CartService
	Catalog *service.CatalogService
	Studio  *service.StudioService
}

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	CORSAllowedOrigins []string
	Session            SessionConfig
	RequestTimeout     time.Duration
	// Applies to bookings and subscriptions. Zero RPS disables it.
	WriteRateLimit middleware.RateLimitConfig
	// Public cache lifetime of artwork reads. Zero disables caching headers.
	CatalogMaxAge time.Duration
}

// NewRouter creates a chi router with all studio routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(svcs.Cart, logger)
	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	studioHandler := NewStudioHandler(svcs.Studio, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequestLogger(logger))

		// Session-scoped cart and wishlist.
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(Session(cfg.Session))
			// Rebuild the request logger so it carries the resolved session.
			r.Use(middleware.RequestLogger(logger))
			r.Use(Notices)

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{id}", cartHandler.UpdateQuantity)
			r.Delete("/cart/items/{id}", cartHandler.RemoveItem)

			r.Get("/wishlist", cartHandler.GetWishlist)
			r.Get("/wishlist/{id}", cartHandler.InWishlist)
			r.Put("/wishlist/{id}", cartHandler.AddToWishlist)
			r.Delete("/wishlist/{id}", cartHandler.RemoveFromWishlist)
			r.Post("/wishlist/{id}/toggle", cartHandler.ToggleWishlist)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			r.Get("/artworks", catalogHandler.ListArtworks)
			r.Get("/artworks/{id}", catalogHandler.GetArtwork)
		})
		r.Post("/recommendations", catalogHandler.Recommend)

		r.Get("/classes", studioHandler.ListClasses)
		r.Get("/enrollments", studioHandler.ListEnrollments)

		r.Group(func(r chi.Router) {
			if cfg.WriteRateLimit.RPS > 0 {
				r.Use(middleware.RateLimit(cfg.WriteRateLimit, logger))
			}
			r.Post("/classes/{id}/bookings", studioHandler.BookClass)
			r.Post("/subscribers", studioHandler.Subscribe)
		})
	})

	return r
}
