// Package web serves the leadbook HTTP API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/leadbook/internal/config"
	"github.com/JonMunkholm/leadbook/internal/core"
	appmw "github.com/JonMunkholm/leadbook/internal/web/middleware"
)

// Server is the HTTP front end over core.Service.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	identity appmw.IdentityConfig
	router   *chi.Mux
	server   *http.Server
}

// NewServer builds the router. The identity configuration is derived from
// cfg.Auth.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		identity: identityConfig(cfg.Auth),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func identityConfig(a config.AuthConfig) appmw.IdentityConfig {
	ic := appmw.IdentityConfig{TrustHeaders: a.TrustHeaders}
	if a.JWTSecret != "" {
		ic.JWTSecret = []byte(a.JWTSecret)
	}
	if dev, err := a.ParseDevUser(); a.DevUser != "" && err == nil {
		ic.DevUser = &core.User{ID: dev.ID, Email: dev.Email, FullName: dev.Name}
	}
	return ic
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Identity(s.identity))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestMetadata)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(appmw.RequireUser)

		// Export streams without a deadline; everything else is bounded.
		r.Get("/leads/export", s.handleExport)

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			}

			r.Get("/leads", s.handleListLeads)
			r.Post("/leads", s.handleCreateLead)

			r.Post("/leads/import", s.handleImport)
			r.Get("/leads/import/template", s.handleImportTemplate)

			r.Get("/leads/{id}", s.handleGetLead)
			r.Patch("/leads/{id}", s.handleUpdateLead)
			r.Delete("/leads/{id}", s.handleDeleteLead)
			r.Get("/leads/{id}/history", s.handleLeadHistory)
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}
	slog.Info("http server listening", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	active, available := s.service.ImportStatus()
	body := map[string]any{
		"status":  "ok",
		"imports": map[string]int{"active": active, "available": available},
	}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		body["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

// securityHeaders sets conservative browser headers on every response.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with the given status. Encoding errors are logged
// because the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
