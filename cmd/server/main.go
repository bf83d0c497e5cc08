// PeakChat - counseling practice chat server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/peakchat/internal/agent"
	"github.com/ashureev/peakchat/internal/api"
	"github.com/ashureev/peakchat/internal/config"
	"github.com/ashureev/peakchat/internal/feedback"
	"github.com/ashureev/peakchat/internal/identity"
	"github.com/ashureev/peakchat/internal/llm"
	"github.com/ashureev/peakchat/internal/logging"
	"github.com/ashureev/peakchat/internal/middleware"
	"github.com/ashureev/peakchat/internal/session"
	"github.com/ashureev/peakchat/internal/store"
	"github.com/ashureev/peakchat/web"
)

const sweepInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(logger)
	defer func() {
		if closeErr := logCloser.Close(); closeErr != nil {
			slog.Error("Failed to close log file", "error", closeErr)
		}
	}()

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreBackend)

	// Initialize dependencies.
	repo, err := store.New(cfg.StoreBackend, cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Store connected")

	completer, err := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.OpenRouter.BaseURL,
		APIKey:  cfg.OpenRouter.APIKey,
		Referer: cfg.OpenRouter.Referer,
		Title:   cfg.OpenRouter.Title,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	persona, err := agent.NewService(completer, agent.Config{
		Model:      cfg.OpenRouter.ChatModel,
		MaxRetries: cfg.ChatMaxRetries,
		RetryDelay: cfg.ChatRetryDelay,
	})
	if err != nil {
		slog.Error("Failed to initialize agent", "error", err)
		os.Exit(1)
	}

	generator, err := feedback.NewGenerator(completer, feedback.GeneratorConfig{
		Model:       cfg.OpenRouter.FeedbackModel,
		Temperature: cfg.FeedbackTemperature,
		MaxTokens:   cfg.FeedbackMaxTokens,
	})
	if err != nil {
		slog.Error("Failed to initialize feedback generator", "error", err)
		os.Exit(1)
	}

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize services.
	feedbackService := feedback.NewService(generator, cfg.SessionTTL)
	registry := session.NewRegistry(persona, func(userID string) session.Store {
		return store.NewSlot(repo, userID)
	}, session.Config{
		Cap: cfg.SessionMaxResponses,
		OnReplace: func(_, previousSessionID string) {
			feedbackService.Forget(previousSessionID)
		},
	})
	conns := api.NewConnRegistry()

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo)
	apiHandler := api.NewHandler(repo, registry, feedbackService, cfg,
		api.WithConversationLogger(conversationLogger),
		api.WithConnRegistry(conns),
	)
	defer apiHandler.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Everything else carries the anonymous device identity.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		apiHandler.RegisterRoutes(r)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Completion calls can take up to LLM_TIMEOUT per attempt, so writes are
	// left unbounded like the WebSocket connections.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartSweeper(ctx, registry, repo, cfg.SessionTTL, sweepInterval, conns.CloseUser)
	slog.Info("Session sweeper started", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server stopped successfully")
}
