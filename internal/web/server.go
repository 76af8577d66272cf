// Package web exposes the import pipeline over HTTP as a JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledoux/bakehouse/internal/config"
	"github.com/ledoux/bakehouse/internal/importer"
	"github.com/ledoux/bakehouse/internal/store"
	"github.com/ledoux/bakehouse/internal/web/middleware"
)

// Server is the HTTP server for the back-office import API.
type Server struct {
	imports *importer.Service
	orders  store.Orders
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the import service and order repository into a router.
func NewServer(imports *importer.Service, orders store.Orders, cfg *config.Config) *Server {
	s := &Server{
		imports: imports,
		orders:  orders,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)
	s.router.Use(middleware.APIKeyAuth(&s.cfg.Security))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/kinds", s.handleListKinds)

		r.Route("/import", func(r chi.Router) {
			r.Post("/{kind}", s.handleUpload)

			r.Route("/session/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleSessionStatus)
				r.Delete("/", s.handleDiscardSession)
				r.Post("/mapping", s.handleConfirmMapping)
				r.Post("/commit", s.handleCommit)
				r.Get("/failures.csv", s.handleDownloadFailures)
			})
		})

		r.Get("/orders", s.handleListOrders)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// securityHeaders hardens every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
