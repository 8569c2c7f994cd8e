// Package server wires the application together: router, middleware,
// routes, and graceful shutdown. This is the composition root — every
// dependency chain (db → repository → service → handler) is assembled
// here and nowhere else, so main.go stays a thin shell.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/tahmid/screenroom/internal/auth"
	"github.com/tahmid/screenroom/internal/config"
	"github.com/tahmid/screenroom/internal/handler"
	"github.com/tahmid/screenroom/internal/middleware"
	sqliteRepo "github.com/tahmid/screenroom/internal/repository/sqlite"
	"github.com/tahmid/screenroom/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL gets flushed and the file
// lock released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full application. rdb may be nil, which disables the
// login rate limiter; everything else is required.
//
// Each layer receives only the layer below it: services get repository
// interfaces, handlers get services. No handler ever touches the
// database directly.
func New(cfg config.Config, rdb *redis.Client, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(rdb); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// Middleware order matters: RequestID and RealIP first so the logger can
// use both, Recoverer before the logger so a panic still gets a log line
// with a 500 status.
func (s *Server) setupRoutes(rdb *redis.Client) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SessionSecret, s.config.SessionDuration())
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	users := s.db.Users()
	screenplays := s.db.Screenplays()
	scenes := s.db.Scenes()

	gate := service.NewGate(screenplays)
	authSvc := service.NewAuthService(users, tokens, passwords, s.logger)
	screenplaySvc := service.NewScreenplayService(screenplays, gate, s.logger)
	sceneSvc := service.NewSceneService(scenes, gate, s.logger)

	// Cookie lifetime mirrors the token lifetime exactly.
	authHandler := handler.NewAuthHandler(authSvc, tokens.TTL(), s.logger)
	screenplayHandler := handler.NewScreenplayHandler(screenplaySvc, s.logger)
	sceneHandler := handler.NewSceneHandler(sceneSvc, s.logger)

	limit := middleware.LoginRateLimit(rdb, s.logger)

	// Public routes. The credential POSTs carry the rate limiter.
	s.router.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/register", authHandler.HandleRegisterForm)
		r.Get("/login", authHandler.HandleLoginForm)
	})
	s.router.Post("/logout", authHandler.HandleLogout)

	// Everything below requires a valid session.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/api/me", authHandler.HandleMe)

		r.Get("/screenplays", screenplayHandler.HandleList)
		r.Post("/screenplays", screenplayHandler.HandleCreate)
		r.Get("/screenplays/{id}", screenplayHandler.HandleGet)
		r.Post("/screenplays/{id}", screenplayHandler.HandleUpdate)
		r.Post("/screenplays/{id}/delete", screenplayHandler.HandleDelete)

		r.Get("/screenplays/{id}/scenes", sceneHandler.HandleList)
		r.Post("/screenplays/{id}/scenes", sceneHandler.HandleCreate)

		r.Get("/scenes/{id}", sceneHandler.HandleGet)
		r.Post("/scenes/{id}", sceneHandler.HandleUpdate)
		r.Post("/scenes/{id}/delete", sceneHandler.HandleDelete)
		r.Post("/scenes/{id}/move", sceneHandler.HandleMove)
	})

	return nil
}

// Router exposes the configured router, mainly for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for
// up to 30 seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
