package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akulikov/invauth/internal/db"
	"github.com/akulikov/invauth/internal/handlers"
	"github.com/akulikov/invauth/internal/handlers/middleware"
	"github.com/akulikov/invauth/internal/logger"
	"github.com/akulikov/invauth/internal/repository/postgres"
	"github.com/akulikov/invauth/internal/service/auth"
	"github.com/akulikov/invauth/internal/service/auth/tokenmanager"
	"github.com/akulikov/invauth/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Lifetimes are validated by Config.Validate already
	accessTTL, err := ParseLifetime(c.AccessTokenLifetime)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := ParseLifetime(c.RefreshTokenLifetime)
	if err != nil {
		return nil, err
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{Logger: log}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage)

	// Initialize handlers and middlewares
	authHandler := handlers.NewAuth(authService, log)
	usersHandler := handlers.NewUsers(userService, log)

	mux := handlers.NewRouter(
		authHandler,
		usersHandler,
		middleware.AuthMiddleware(authService),
		middleware.LoggerMiddleware(log),
		middleware.CORSMiddleware(c.CORSOrigins),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close connections gracefully
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
