package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digithesis/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"digithesis/internal/auth"
	"digithesis/internal/cache"
	"digithesis/internal/checker"
	"digithesis/internal/config"
	"digithesis/internal/db"
	"digithesis/internal/handler"
	"digithesis/internal/model"
	"digithesis/internal/repository"
	"digithesis/internal/router"
	"digithesis/internal/service"
	"digithesis/internal/storage"
)

// @title Thesis Portal API
// @version 1.0
// @description Thesis upload, review and discovery with role-based access control.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name x-auth-token
// @description Access token, sent as "x-auth-token: <token>" or "Authorization: Bearer <token>".
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	e := echo.New()
	e.HideBanner = true

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.IsDev())
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Thesis{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Printf("Warning: redis unavailable, running without cache: %v", err)
	}

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	thesisRepo := repository.NewThesisRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient, tokenStore, jwtService.AccessTTL())
	thesisService := service.NewThesisService(thesisRepo, store, checker.NewSimulated(), cfg.Storage.MaxUploadBytes())

	router.Register(e, cfg, jwtService, tokenStore, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Thesis: handler.NewThesisHandler(thesisService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	go gracefulShutdown(e)

	log.Printf("Server starting on port %s [MODE: %s, STORAGE: %s]", cfg.ServerPort, cfg.AppMode, cfg.Storage.Backend)
	if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server start: %v", err)
	}
}

// gracefulShutdown stops the server on SIGINT or SIGTERM.
func gracefulShutdown(e *echo.Echo) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
