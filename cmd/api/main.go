package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/router"
	"github.com/plateful/backend/internal/server"
	"github.com/plateful/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis is optional: without it rate limiting and the token denylist
	// are disabled but the server still runs.
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
		redisClient = nil
	}

	imageStore := newImageStore(cfg)

	authService := service.NewAuthService(db, cfg.JWTSecret, redisClient)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db, cfg)
	catalogService := service.NewCatalogService(db)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	handlers := router.Handlers{
		Auth:       api.NewAuthHandler(authService),
		User:       api.NewUserHandler(userService, recipeService, authService, cfg),
		Recipe:     api.NewRecipeHandler(recipeService, userService, authService, imageStore, rateLimiter, cfg),
		Tag:        api.NewTagHandler(catalogService),
		Ingredient: api.NewIngredientHandler(catalogService),
	}

	srv := server.New(cfg, router.SetupRouter(db, handlers))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func newImageStore(cfg *config.Config) service.ImageStore {
	if cfg.S3Bucket != "" {
		s3Config, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to configure S3 storage: %v", err)
		}
		return service.NewS3ImageStore(s3Config)
	}
	return service.NewLocalImageStore(cfg.MediaDir, "/media")
}
