package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pwojcik/flashgen-api/auth"
	"github.com/pwojcik/flashgen-api/config"
	"github.com/pwojcik/flashgen-api/generation"
	"github.com/pwojcik/flashgen-api/handlers"
	"github.com/pwojcik/flashgen-api/middleware"
	"github.com/pwojcik/flashgen-api/openrouter"
	"github.com/pwojcik/flashgen-api/store"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	logger, err := buildLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := config.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	aiClient, err := openrouter.NewClient(openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.OpenRouterModel,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build OpenRouter client", zap.Error(err))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.CookieDomain, cfg.CookieSecure)
	users := store.NewUserStore(db)
	flashcards := store.NewFlashcardStore(db)
	generations := generation.NewService(db, aiClient, logger)

	authHandler := &handlers.AuthHandler{Users: users, Tokens: tokens, Log: logger}
	flashcardHandler := &handlers.FlashcardHandler{Store: flashcards, Log: logger}
	generationHandler := &handlers.GenerationHandler{Service: generations, Log: logger}

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/password-recovery", authHandler.PasswordRecovery)
	mux.HandleFunc("POST /api/auth/password-reset", authHandler.PasswordReset)

	// Generation
	mux.HandleFunc("POST /api/generations", generationHandler.Generate)
	mux.HandleFunc("POST /api/generations/session", generationHandler.RecordSession)
	mux.HandleFunc("GET /api/generations/stats", generationHandler.Stats)

	// Flashcards
	mux.HandleFunc("POST /api/flashcards/createFlashcard", flashcardHandler.Create)
	mux.HandleFunc("GET /api/flashcards/getFlashcards", flashcardHandler.List)
	mux.HandleFunc("PUT /api/flashcards/updateFlashcard", flashcardHandler.Update)
	mux.HandleFunc("DELETE /api/flashcards/deleteFlashcard", flashcardHandler.Delete)

	sessionMiddleware := middleware.Session(tokens, users, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(sessionMiddleware(mux))

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func buildLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
