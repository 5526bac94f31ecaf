package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/pipeline"
	"github.com/heimdex/heimdex-editor/internal/playback"
	"github.com/heimdex/heimdex-editor/internal/player"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type CatalogProvider interface {
	Catalog() editor.Catalog
}

// ServerConfig wires the API to the session and its collaborators. Renderer
// probes sources on load; Catalog is applied when the front end sets export
// options without sending its own. Events, when set, must also be the
// session's change hook.
type ServerConfig struct {
	Port           int
	Session        *editor.Session
	Player         *player.Player
	Renderer       pipeline.Renderer
	Catalog        CatalogProvider
	OutputDir      string
	PlaybackServer playback.PlaybackService
	Repository     jobs.Repository
	Runner         *jobs.Runner
	Events         *EventHub
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
	Version        string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
