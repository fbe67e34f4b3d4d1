// Package handlers exposes the economy service over HTTP JSON.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/metrics"
)

// Config configures the HTTP server.
type Config struct {
	Logger  *slog.Logger
	Service *economy.Service

	// DevMode enables the token-grant endpoint. Never set in production.
	DevMode bool

	// RateLimit caps API requests per IP. Zero values keep the defaults of
	// 120/minute and a burst of 30.
	RateLimit rate.Limit
	RateBurst int
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Service == nil {
		return errors.New("economy service is required")
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = rate.Every(time.Minute / 120)
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 30
	}
	return nil
}

// Server is the HTTP surface over the economy service.
type Server struct {
	log     *slog.Logger
	svc     *economy.Service
	router  *chi.Mux
	devMode bool
}

// NewServer creates the server and mounts all routes.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		log:     cfg.Logger,
		svc:     cfg.Service,
		router:  chi.NewRouter(),
		devMode: cfg.DevMode,
	}
	s.setupRoutes(NewRateLimiter(cfg.RateLimit, cfg.RateBurst))
	return s, nil
}

// Router returns the mounted chi router.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes(limiter *RateLimiter) {
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
	}))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))

		r.Post("/users", s.handleCreateUser)
		r.Get("/users/{id}", s.handleGetUser)
		r.Get("/stats/{userID}", s.handleGetStats)

		r.Get("/rewards", s.handleListRewards)

		r.Get("/inventory/{userID}", s.handleListInventory)
		r.Patch("/inventory/{entryID}/favorite", s.handleSetFavorite)
		r.Post("/inventory/salvage", s.handleSalvage)
		r.Post("/inventory/salvage/duplicates", s.handleSalvageDuplicates)

		r.Get("/shop/{currency}", s.handleListOffers)
		r.Post("/shop/purchase", s.handlePurchase)
		r.Get("/shop/purchases/{userID}", s.handleListPurchases)

		r.Get("/gacha/banner", s.handleActiveBanner)
		r.Get("/gacha/state/{userID}/{bannerID}", s.handleGachaState)
		r.Post("/gacha/pull", s.handlePull)
		r.Post("/gacha/wish", s.handleSetWish)

		if s.devMode {
			r.Post("/users/{id}/grant", s.handleGrantTokens)
		}
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
