// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ai_hoi/internal/core"
	"ai_hoi/internal/ingest"
	"ai_hoi/src/location"
	"ai_hoi/src/logger"
	"ai_hoi/src/memory"
	"ai_hoi/src/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "ai-hoi"

// ChatService is implemented by core.Pipeline
type ChatService interface {
	Chat(ctx context.Context, in core.ChatInput) (*core.ChatOutput, error)
	Ask(ctx context.Context, in core.AskInput) (string, error)
	Shutdown(ctx context.Context) error
}

type HistoryService interface {
	History(ctx context.Context, query string, limit int) (memory.HistoryResult, error)
}

type Ingester interface {
	Ingest(ctx context.Context, namespace string, docs []ingest.Document) (ingest.Report, error)
}

// Deps are the services behind the routes
type Deps struct {
	Chat     ChatService
	Geocoder location.Resolver
	History  HistoryService
	Ingester Ingester
}

type Server struct {
	deps      Deps
	config    model.ServerConfig
	namespace string
	router    *gin.Engine
	http      *http.Server
	now       func() time.Time
	log       zerolog.Logger
}

// New builds the router. namespace is the knowledge namespace used when a
// request names none.
func New(deps Deps, config model.ServerConfig, namespace string) *Server {
	s := &Server{
		deps:      deps,
		config:    config,
		namespace: namespace,
		now:       time.Now,
		log:       logger.With("server"),
	}
	s.initRouter()
	s.http = &http.Server{
		Addr:              config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) initRouter() {
	s.router = gin.New()
	s.router.Use(
		gin.Recovery(),
		requestID(),
		otelgin.Middleware(serviceName),
		accessLog(s.log),
		corsMiddleware(s.config.CORSOrigins),
	)

	s.router.POST("/chat", s.handleChat)
	s.router.POST("/ask", s.handleAsk)
	s.router.POST("/location", s.handleLocation)
	s.router.GET("/search-history", s.handleSearchHistory)
	s.router.POST("/ingest-restaurants", s.handleIngestRestaurants)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.config.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP requests, then waits for pending memory writes
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.http.Shutdown(ctx)
	chatErr := s.deps.Chat.Shutdown(ctx)
	return errors.Join(httpErr, chatErr)
}
