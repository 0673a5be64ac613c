package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/config"
)

// Server exposes the operational endpoints: liveness and Prometheus
// metrics. It carries no bot functionality.
type Server struct {
	cfg    *config.Config
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg *config.Config, log *zerolog.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Admin.Port),
		Handler: r,
	}
	s.log.Info().Int("port", s.cfg.Admin.Port).Msg("admin http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
