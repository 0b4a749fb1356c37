// Package server is the HTTP surface of the viewer: the page, the session
// websocket, resource passthrough, health and metrics.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resource"
)

// Config holds server configuration.
type Config struct {
	Listen string
	// DefaultConfig is the layer configuration used without ?config=.
	DefaultConfig string
	Markdown      bool
	Debounce      time.Duration
	Lang          string
	// AllowAll allows every CORS origin (dev mode).
	AllowAll       bool
	AllowedOrigins []string
}

// Server serves viewer sessions over one content root.
type Server struct {
	cfg        Config
	fetcher    resource.Fetcher
	dispatcher *render.Dispatcher
	log        zerolog.Logger
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server. m may be nil.
func New(cfg Config, fetcher resource.Fetcher, dispatcher *render.Dispatcher, log zerolog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		log:        log,
		metrics:    m,
		sessions:   make(map[string]*session),
	}
	s.router = s.buildRouter()
	return s
}

// allowedOrigins is the origin allowlist shared by CORS and the websocket
// handshake. Entries may hold one "*" wildcard.
func (s *Server) allowedOrigins() []string {
	if s.cfg.AllowAll {
		return []string{"*"}
	}
	return append([]string{"http://localhost:*", "http://127.0.0.1:*"}, s.cfg.AllowedOrigins...)
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	corsOpts := cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// The socket lives as long as the page; keep it out of the timeout group.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleIndex)
		r.Get("/static/app.js", s.handleAppJS)
		r.Get("/assets/*", s.handleAsset)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleSessionView)
				r.Post("/jump/{layer}", s.handleJump)
			})
		})
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", s.cfg.Listen).Msg("lookin listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and ends every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.cancel()
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
