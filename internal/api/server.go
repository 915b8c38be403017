package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaBoB6868/dorm-ra-bot/internal/chat"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ratelimit"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger       log.Logger
	Orchestrator *chat.Orchestrator // Required
	Limiter      *ratelimit.Limiter // Required
	Pool         *pgxpool.Pool      // Optional: nil disables pool stats in /ready
	CORSOrigins  []string           // Allowed origins for CORS
	IsDev        bool               // Disables HSTS for local HTTP development
	TrustProxy   bool               // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Config{})
	}

	ch := &chatHandler{
		orchestrator: cfg.Orchestrator,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("POST /api/v1/chat/stream", ch.stream)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(cfg.Limiter, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
