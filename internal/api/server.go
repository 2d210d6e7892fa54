package api

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/transcript-viewer/internal/config"
	"github.com/snarg/transcript-viewer/internal/database"
	"github.com/snarg/transcript-viewer/internal/library"
	"github.com/snarg/transcript-viewer/internal/metrics"
	"github.com/snarg/transcript-viewer/internal/mqttclient"
	"github.com/snarg/transcript-viewer/internal/viewer"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions carries the server's dependencies. DB, MQTT, Watcher and
// WebFiles may be nil.
type ServerOptions struct {
	Config    *config.Config
	Manager   *viewer.Manager
	DB        *database.DB
	MQTT      *mqttclient.Client
	Watcher   *library.Watcher
	WebFiles  fs.FS
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	r := NewRouter(opts)

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

// NewRouter builds the HTTP routing tree.
func NewRouter(opts ServerOptions) chi.Router {
	cfg := opts.Config
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(CORSWithOrigins(cfg.AllowedOrigins()))
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", promhttp.Handler())

	health := NewHealthHandler(opts.Manager.Library(), opts.DB, opts.MQTT, opts.Watcher, opts.Manager, opts.Version, opts.StartTime)

	r.Route("/api/v1", func(r chi.Router) {
		// Health endpoint: no auth
		r.Get("/health", health.ServeHTTP)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(cfg.AuthToken))
			NewMediaHandler(opts.Manager.Library()).Routes(r)
			NewSessionsHandler(opts.Manager).Routes(r)
			NewEventsHandler(opts.Manager).Routes(r)
		})
	})

	if opts.WebFiles != nil {
		r.Handle("/*", http.FileServer(http.FS(opts.WebFiles)))
	}

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
