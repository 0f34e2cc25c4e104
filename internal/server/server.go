package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/todoapp/apiserver/config"
	"github.com/todoapp/apiserver/internal/auth"
	"github.com/todoapp/apiserver/internal/db"
	"github.com/todoapp/apiserver/internal/handlers"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/mq"
	"github.com/todoapp/apiserver/internal/services"
	"github.com/todoapp/apiserver/internal/storage"
	"github.com/todoapp/apiserver/internal/store"
	"github.com/todoapp/apiserver/internal/validation"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server, router and the clients it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *db.DB
	queue      *mq.MQ
	objects    *storage.Storage
	logger     logging.Logger
}

// New connects every dependency named in cfg and builds the router.
func New(ctx context.Context, cfg config.Config, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Auth.UsesDefaultSecret() {
		logger.Warn(ctx, "SECRET_KEY is not set, tokens are signed with the built-in default")
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s := &Server{db: dbConn, logger: logger}

	s.queue, err = mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.objects, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	taskRepo := store.NewTaskRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)

	validator := validation.New()
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.Auth.SecretKey,
		AccessTTL:  cfg.Auth.AccessTokenTTL(),
		RefreshTTL: cfg.Auth.RefreshTokenTTL(),
	}, time.Now)

	var publisher services.EventPublisher
	if s.queue != nil {
		publisher = s.queue
	}
	events := services.NewTaskEvents(publisher, cfg.MQ.TaskEventsChannel, logger)

	authService := services.NewAuthService(
		userRepo,
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokens,
		validator,
		services.AuthOptions{RejectRefreshAsAccess: cfg.Auth.RejectRefreshAsAccess},
	)
	taskService := services.NewTaskService(taskRepo, categoryRepo, validator, events)
	categoryService := services.NewCategoryService(categoryRepo, validator)

	var exportService *services.ExportService
	if s.objects != nil {
		exportService = services.NewExportService(taskService, s.objects, logger)
	}

	s.router = newRouter(routes{
		db:         dbConn,
		auth:       handlers.NewAuthHandler(authService, logger),
		tasks:      handlers.NewTaskHandler(taskService, exportService, logger),
		categories: handlers.NewCategoryHandler(categoryService, logger),
		logger:     logger,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

type routes struct {
	db         handlers.Pinger
	auth       *handlers.AuthHandler
	tasks      *handlers.TaskHandler
	categories *handlers.CategoryHandler
	logger     logging.Logger
}

func newRouter(rt routes) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(rt.logger),
		handlers.Recoverer(rt.logger),
		middleware.Timeout(requestTimeout),
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/healthz", handlers.Healthz(rt.db, rt.logger))
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, rt.auth)
	})
	router.Route("/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, rt.tasks, rt.auth.RequireAuth)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, rt.categories)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// every client the server owns.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	errs = append(errs, s.close())
	return errors.Join(errs...)
}

func (s *Server) close() error {
	var errs []error
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
	}
	if s.objects != nil {
		errs = append(errs, s.objects.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
