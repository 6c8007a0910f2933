package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	core_port "leboncoin-parser-service/internal/core/port"
)

// Server - REST API сервер парсера.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

func NewServer(port string, handlers *CrawlHandler, baseLogger core_port.LoggerPort) *Server {
	r := chi.NewRouter()

	// Общие middleware
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	// Роутинг для API v1. Эндпоинты вызываются внутренними сервисами,
	// мы доверяем нашей внутренней сети.
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/crawl", handlers.EnqueueCrawl)
		r.Post("/cities", handlers.RegisterCity)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
