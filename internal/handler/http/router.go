package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shazamohamed705/amazing/internal/cart"
	"github.com/shazamohamed705/amazing/internal/remote"
	"github.com/shazamohamed705/amazing/pkg/health"
	"github.com/shazamohamed705/amazing/pkg/middleware"
)

// RouterDeps holds everything the router wires together.
type RouterDeps struct {
	Engine        *cart.Engine
	Checkout      *remote.CheckoutClient
	Sessions      SessionStore
	HealthHandler *health.Handler
	Logger        *slog.Logger
	PprofCIDRs    []string
	RateLimit     middleware.RateLimitConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	limiter := middleware.NewRateLimiter(deps.RateLimit)

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(limiter.Handler)

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)

	cartHandler := NewCartHandler(deps.Engine, deps.Logger)
	sessionHandler := NewSessionHandler(deps.Sessions, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Engine, deps.Checkout, deps.Sessions, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Put("/session", sessionHandler.PutSession)
		r.Delete("/session", sessionHandler.DeleteSession)

		r.Post("/checkout", checkoutHandler.Checkout)
	})

	return r
}
