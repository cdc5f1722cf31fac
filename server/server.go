// Package server assembles the HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/plugin/ai"
	"github.com/hrygo/cadence/server/assistant"
	"github.com/hrygo/cadence/server/auth"
	apiv1 "github.com/hrygo/cadence/server/router/api/v1"
	"github.com/hrygo/cadence/store"
)

// Server is the cadence HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer builds the server: auth, the assistant session when AI is
// enabled, and the REST routes.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(requestLogger())

	authService, err := auth.NewService(ctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create auth service")
	}

	var session *assistant.Session
	if p.IsAIEnabled() {
		llmConfig := ai.NewLLMConfigFromProfile(p)
		if err := llmConfig.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid AI configuration")
		}
		llm, err := ai.NewLLMService(llmConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
		session = assistant.NewSession(st, llm, p.TimeLocation())
		slog.Info("assistant enabled", "model", llmConfig.Model, "base_url", llmConfig.BaseURL)
	} else {
		slog.Info("assistant disabled, chat routes will return 501")
	}

	apiV1Service := apiv1.NewAPIV1Service(p, st, authService, session)
	apiV1Service.Register(e)

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
	}, nil
}

// Start begins serving and blocks until the listener fails or the
// server is shut down.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server listening", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server gracefully", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}

// requestLogger emits one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"duration_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
				slog.Warn("request", attrs...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	})
}
