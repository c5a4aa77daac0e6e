package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/travel-agency/internal/config"
	"github.com/robertarktes/travel-agency/internal/observability"
)

// SetupRouter wires every route. rl may be nil, which disables rate limiting.
func SetupRouter(h *Handlers, logger observability.Logger, rl Limiter, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(CORSMiddleware(cfg.FrontendURL))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Use(RateLimitMiddleware(rl, logger, "auth", cfg.AuthRateLimit))
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(rl, logger, "api", cfg.RateLimit))

		r.Route("/packages", func(r chi.Router) {
			r.Get("/", h.ListPackages)
			r.Post("/", h.CreatePackage)
			r.Post("/search", h.SearchPackages)
			r.Get("/available", h.AvailablePackages)
			r.Get("/{id}", h.GetPackage)
			r.Put("/{id}", h.UpdatePackage)
			r.Delete("/{id}", h.DeletePackage)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/", h.ListBookings)
			r.Get("/user/{userID}", h.ListUserBookings)
			r.Delete("/{id}", h.CancelBooking)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", h.AddReview)
			r.Get("/", h.ListReviews)
			r.Delete("/{id}", h.DeleteReview)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
			r.Put("/{id}", h.UpdateStaff)
			r.Delete("/{id}", h.DeleteStaff)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/availability", h.Availability)
			r.Get("/revenue", h.Revenue)
			r.Get("/bookings/monthly", h.MonthlyBookings)
		})
	})

	return r
}
