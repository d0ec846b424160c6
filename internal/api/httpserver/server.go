// Package httpserver serves the admin RPC, metrics and health endpoints.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/19cast/internal/api/connect"
	"github.com/osa030/19cast/internal/infra/logger"
)

// Config holds server configuration.
type Config struct {
	Addr           string
	AdminToken     string
	AllowedOrigins []string // CORS is off when empty
}

// Server is the admin HTTP server.
type Server struct {
	config Config
	server *http.Server
}

// New builds the router. Streaming RPCs run for as long as the client
// watches, so no write timeout is set.
func New(config Config, admin apiconnect.AdminServiceHandler) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(logger.Middleware)
	r.Use(chimw.Recoverer)
	if len(config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", apiconnect.AdminTokenHeader},
			ExposedHeaders: []string{apiconnect.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", health)
	r.Handle("/metrics", promhttp.Handler())

	path, handler := apiconnect.NewAdminServiceHandler(
		admin,
		connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(config.AdminToken)),
	)
	r.Mount(path, handler)

	return &Server{
		config: config,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           h2c.NewHandler(r, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.config.Addr)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	zlog.Info().Msgf("admin server listening: addr=%s", ln.Addr())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "admin server failed")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
