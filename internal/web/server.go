// Package web provides the HTTP server and routing for the attendance API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/extractor"
	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/web/middleware"
)

// Stores bundles the repository implementations the server depends on. The
// backends are opened by the caller and injected here with their lifecycle
// managed at process level.
type Stores struct {
	Roster store.StudentWriter
	Exams  store.ExamWriter
	Ledger store.AttendanceWriter
}

// Server represents the web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	engine     *attendance.Engine
	stores     Stores
	extractor  *extractor.Client
	onRegister func()
}

// NewServer creates a new web server. onRegister, when non-nil, runs after
// every roster mutation (used to rebuild the optional roster index).
func NewServer(cfg *config.Config, port int, host string, stores Stores, engine *attendance.Engine, ex *extractor.Client, onRegister func()) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		engine:     engine,
		stores:     stores,
		extractor:  ex,
		onRegister: onRegister,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
