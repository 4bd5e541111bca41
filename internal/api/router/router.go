package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/prism-crm/internal/auth"
	"github.com/wolfman30/prism-crm/internal/bookings"
	"github.com/wolfman30/prism-crm/internal/health"
	httpmiddleware "github.com/wolfman30/prism-crm/internal/http/middleware"
	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/internal/rentsync"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	HealthHandler   *health.Handler
	AuthHandler     *auth.Handler
	LeadsHandler    *leads.Handler
	BookingsHandler *bookings.Handler
	RentSyncHandler *rentsync.Handler
	MetricsHandler  http.Handler

	// DashboardAuthSecret protects the lead list when set.
	DashboardAuthSecret string
	LoginLimiter        *httpmiddleware.RateLimiter
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, webhooks, booking form)
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/", cfg.HealthHandler.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			var login http.Handler = http.HandlerFunc(cfg.AuthHandler.Login)
			if cfg.LoginLimiter != nil {
				login = httpmiddleware.RateLimit(cfg.LoginLimiter)(login)
			}
			public.Method(http.MethodPost, "/auth/login", login)
		}
		if cfg.RentSyncHandler != nil {
			public.Post("/webhooks/rentsync", cfg.RentSyncHandler.Webhook)
		}
		if cfg.BookingsHandler != nil {
			public.Post("/bookings", cfg.BookingsHandler.CreateBooking)
			public.Post("/bookings/", cfg.BookingsHandler.CreateBooking)
			public.Get("/bookings/taken", cfg.BookingsHandler.TakenSlots)
		}
	})

	// Dashboard endpoints
	r.Group(func(dashboard chi.Router) {
		if cfg.DashboardAuthSecret != "" {
			dashboard.Use(httpmiddleware.DashboardJWT(cfg.DashboardAuthSecret))
		}
		if cfg.LeadsHandler != nil {
			for _, path := range []string{"/leads", "/leads/", "/get_leads", "/get_leads/"} {
				dashboard.Get(path, cfg.LeadsHandler.ListLeads)
			}
			dashboard.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		}
		if cfg.BookingsHandler != nil {
			dashboard.Get("/leads/{leadID}/bookings", cfg.BookingsHandler.ListLeadBookings)
		}
	})

	return r
}
