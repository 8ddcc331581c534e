// Package server wires the application together and runs the HTTP server.
//
// New is the composition root:
//
//	config → user store (sqlite | mongodb)
//	       → auth pieces (bcrypt, cookie tokens, session store, Google provider)
//	       → services → handlers → chi routes
//
// Nothing below this package constructs its own dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/secrets/internal/auth"
	"github.com/sakif/secrets/internal/config"
	"github.com/sakif/secrets/internal/handler"
	"github.com/sakif/secrets/internal/middleware"
	"github.com/sakif/secrets/internal/repository"
	"github.com/sakif/secrets/internal/repository/mongodb"
	"github.com/sakif/secrets/internal/repository/sqlite"
	"github.com/sakif/secrets/internal/service"
)

// maxPurgeInterval caps how long expired sessions linger in memory.
const maxPurgeInterval = 10 * time.Minute

// userStore is a repository that owns a connection.
type userStore interface {
	repository.UserRepository
	io.Closer
}

// Server owns the router, the user store and the session table.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	store    userStore
	sessions *auth.MemorySessionStore
	google   handler.GoogleAuthenticator
	bcrypt   *auth.PasswordService

	closeOnce sync.Once
	closeErr  error
}

// Option customises New.
type Option func(*Server)

// WithGoogle replaces the Google provider built from CLIENT_ID/CLIENT_SECRET and
// enables the Google routes even without them.
func WithGoogle(g handler.GoogleAuthenticator) Option {
	return func(s *Server) { s.google = g }
}

// WithPasswordService replaces the default bcrypt cost (tests use the minimum).
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.bcrypt = p }
}

// New opens the user store and builds all routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		sessions: auth.NewMemorySessionStore(cfg.SessionTTL),
		bcrypt:   auth.NewPasswordService(),
	}
	if cfg.GoogleEnabled() {
		s.google = auth.NewGoogleProvider(cfg.ClientID, cfg.ClientSecret, cfg.CallbackURL)
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func openStore(ctx context.Context, cfg config.Config) (userStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverSQLite:
		return sqlite.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the user store. The server owns the store and Start leaves it
// open, so callers close exactly once after Start returns; extra calls are no-ops.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close()
	})
	return s.closeErr
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// GET  /                  → welcome page
// GET  /register          → registration form
// POST /register          → create account, sign in → /home
// GET  /login             → login form
// POST /login             → sign in → /home
// GET  /auth/google       → Google consent page          (if configured)
// GET  /auth/google/home  → Google callback → /home      (if configured)
// GET  /home              → every shared secret (public)
// GET  /submit            → submit form                  (signed in)
// POST /submit            → store secret → /home         (signed in)
// GET  /logout            → sign out → /
// GET  /static/*          → CSS
// GET  /healthz           → liveness
//
// MIDDLEWARE ORDER: request ID, real IP, request log, panic recovery. Static files
// and /healthz stop there; the page routes sit in a group that also loads the
// signed-in user, so a cookie on a CSS fetch never costs a store lookup.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Secret)
	if err != nil {
		return err
	}

	renderer, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	authService := service.NewAuthService(s.store, s.bcrypt, tokens, s.sessions, s.sessions.TTL(), s.logger)
	secretService := service.NewSecretService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.google, renderer, s.config.SecureCookie, s.logger)
	secretHandler := handler.NewSecretHandler(secretService, renderer, s.google != nil, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/healthz", handler.HandleHealth)

	if s.google == nil {
		s.logger.Warn("CLIENT_ID/CLIENT_SECRET not set, Google sign-in is disabled")
	}

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Sessions(authService))

		r.Get("/", secretHandler.HandleWelcome)
		r.Get("/home", secretHandler.HandleHome)

		r.Get("/register", authHandler.HandleRegisterForm)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)

		if s.google != nil {
			r.Get("/auth/google", authHandler.HandleGoogleLogin)
			r.Get("/auth/google/home", authHandler.HandleGoogleCallback)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser("/login"))
			r.Get("/submit", secretHandler.HandleSubmitForm)
			r.Post("/submit", secretHandler.HandleSubmit)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight requests
// (30s). The user store stays open; call Close afterwards.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.purgeSessions(ctx)

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.StoreDriver),
			slog.Bool("google", s.google != nil),
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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// purgeSessions drops expired sessions periodically until ctx is done.
func (s *Server) purgeSessions(ctx context.Context) {
	interval := min(s.config.SessionTTL, maxPurgeInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.Purge(now); n > 0 {
				s.logger.Debug("purged expired sessions", slog.Int("count", n))
			}
		}
	}
}
