package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/acquisitions/apiserver/config"
	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/db"
	"github.com/acquisitions/apiserver/internal/events"
	"github.com/acquisitions/apiserver/internal/handlers"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/mq"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/storage"
	"github.com/acquisitions/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dependencies are the collaborators the router is built from. Avatars may
// be nil when no object storage is configured.
type Dependencies struct {
	Logger       *slog.Logger
	Users        *services.UserService
	Avatars      *services.AvatarService
	Tokens       *auth.TokenManager
	SecureCookie bool
}

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.MQ
	logger     *slog.Logger
}

// New connects every configured backend and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bus, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		if bus != nil {
			_ = bus.Close()
		}
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)

	var userOpts []services.UserServiceOption
	if bus != nil {
		userOpts = append(userOpts, services.WithEventPublisher(events.NewPublisher(bus, cfg.MQ.EventsChannel)))
		logger.Info("user events enabled", "backend", cfg.MQ.Backend, "channel", cfg.MQ.EventsChannel)
	}
	userService := services.NewUserService(userRepo, userOpts...)

	var avatarService *services.AvatarService
	if objects != nil {
		avatarService = services.NewAvatarService(objects, userRepo)
		logger.Info("avatar storage enabled", "backend", cfg.Storage.Backend, "bucket", objects.Bucket())
	}

	router := NewRouter(Dependencies{
		Logger:       logger,
		Users:        userService,
		Avatars:      avatarService,
		Tokens:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		SecureCookie: cfg.Auth.CookieSecure,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		logger:     logger,
	}, nil
}

// NewRouter builds the HTTP routes over deps.
func NewRouter(deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.SecureCookie)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Avatars)
	avatarHandler := handlers.NewAvatarHandler(deps.Avatars)
	authMiddleware := handlers.RequireAuth(deps.Tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.HTTPMiddleware(logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Post("/signup", authHandler.SignUp)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler, avatarHandler, authMiddleware)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the bus and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.bus != nil {
		err = errors.Join(err, s.bus.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
