// Package server wires the dependency graph and defines every route.
//
// This is the composition root: main.go hands over a Config and a logger,
// and New assembles DB → repositories → services → handlers in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/handler"
	"github.com/sakif/recipe-box/internal/imagestore"
	"github.com/sakif/recipe-box/internal/middleware"
	sqliteRepo "github.com/sakif/recipe-box/internal/repository/sqlite"
	"github.com/sakif/recipe-box/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port        int
	DBPath      string
	MediaDir    string   // filesystem directory images are written to
	JWTSecret   string   // HMAC secret for token signing
	CORSOrigins []string // allowed browser origins; empty means same-origin only
	RateLimit   int      // requests per minute per IP on /api; 0 disables
}

// Server owns the router and the resources that must be released on
// shutdown, the database connection in particular.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	catalog *service.CatalogService
}

// New opens the database, builds the media store and wires every layer.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Catalog exposes the catalog service for startup seeding.
func (s *Server) Catalog() *service.CatalogService {
	return s.catalog
}

// setupRoutes assembles middleware, services and the route table.
//
// Middleware order matters: RequestID and RealIP run first so the logger and
// rate limiter see them; Recoverer sits inside so panics are still logged as
// completed 500s.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	images, err := imagestore.New(s.config.MediaDir, "/media")
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	userService := service.NewUserService(s.db, tokens, passwords, s.logger)
	recipeService := service.NewRecipeService(s.db, images, s.logger)
	cartService := service.NewCartService(s.db, s.db, s.logger)
	subService := service.NewSubscriptionService(s.db, s.db, s.logger)
	s.catalog = service.NewCatalogService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(userService, s.logger)
	userHandler := handler.NewUserHandler(userService, subService, s.logger)
	catalogHandler := handler.NewCatalogHandler(s.catalog, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, cartService, s.logger)

	// Uploaded images are served straight from disk.
	fileServer := http.FileServer(http.Dir(s.config.MediaDir))
	s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))

	s.router.Route("/api", func(r chi.Router) {
		if s.config.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.config.RateLimit, time.Minute))
		}

		// Public and optionally-authenticated reads. OptionalAuth fills the
		// viewer so derived flags reflect the caller when a token is present.
		r.Group(func(r chi.Router) {
			r.Use(tokens.OptionalAuth)

			r.Post("/users", authHandler.HandleRegister)
			r.Get("/users", userHandler.HandleList)

			r.Get("/tags", catalogHandler.HandleListTags)
			r.Get("/tags/{id}", catalogHandler.HandleGetTag)
			r.Get("/ingredients", catalogHandler.HandleSearchIngredients)
			r.Get("/ingredients/{id}", catalogHandler.HandleGetIngredient)

			r.Get("/recipes", recipeHandler.HandleList)
			r.Get("/recipes/{id}", recipeHandler.HandleGet)
		})

		r.Post("/auth/token/login", authHandler.HandleLogin)
		r.Post("/auth/token/logout", authHandler.HandleLogout)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(tokens.RequireAuth)

			r.Get("/users/me", authHandler.HandleMe)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Post("/users/set_password", authHandler.HandleSetPassword)
			r.Get("/users/subscriptions", userHandler.HandleSubscriptions)
			r.Post("/users/{id}/subscribe", userHandler.HandleSubscribe)
			r.Delete("/users/{id}/subscribe", userHandler.HandleUnsubscribe)

			r.Post("/recipes", recipeHandler.HandleCreate)
			r.Patch("/recipes/{id}", recipeHandler.HandleUpdate)
			r.Delete("/recipes/{id}", recipeHandler.HandleDelete)

			r.Post("/recipes/{id}/favorite", recipeHandler.HandleAddFavorite)
			r.Delete("/recipes/{id}/favorite", recipeHandler.HandleRemoveFavorite)
			r.Post("/recipes/{id}/shopping_cart", recipeHandler.HandleAddToCart)
			r.Delete("/recipes/{id}/shopping_cart", recipeHandler.HandleRemoveFromCart)
			r.Get("/recipes/download_shopping_cart", recipeHandler.HandleDownloadShoppingCart)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database so the WAL is flushed.
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
			slog.String("mediaDir", s.config.MediaDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
