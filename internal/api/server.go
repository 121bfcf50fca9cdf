package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aungthurhahein/GaruduaEye/internal/config"
	"github.com/aungthurhahein/GaruduaEye/internal/service"
)

// Server exposes the alert service wire API over echo.
type Server struct {
	echo     *echo.Echo
	monitor  *service.Monitor
	validate *validator.Validate
	cfg      config.APIConfig
	logger   zerolog.Logger
}

// NewServer wires the monitor into an echo instance.
func NewServer(cfg config.APIConfig, monitor *service.Monitor, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.WriteTimeout
	}

	s := &Server{
		echo:     e,
		monitor:  monitor,
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger.With().Str("component", "api").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	g := s.echo.Group("/api")
	g.POST("/alerts", s.RegisterRule)
	g.GET("/alerts/:id", s.RuleStatus)
	g.POST("/alerts/:id/check", s.CheckRule)
	g.POST("/alerts/:id/reset", s.ResetRule)
	g.DELETE("/alerts/:id", s.DeleteRule)
	g.GET("/market", s.MarketStatus)

	s.echo.GET("/healthz", func(c echo.Context) error {
		return respond(c, http.StatusOK, map[string]any{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("alert service listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.echo.Shutdown(shutdownCtx)
}

// Handler exposes the underlying mux for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
