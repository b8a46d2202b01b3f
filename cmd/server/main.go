package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/A-zanke/pharmachat/internal/catalog"
	"github.com/A-zanke/pharmachat/internal/classifier"
	"github.com/A-zanke/pharmachat/internal/config"
	"github.com/A-zanke/pharmachat/internal/dialogue"
	"github.com/A-zanke/pharmachat/internal/executor"
	"github.com/A-zanke/pharmachat/internal/session"
	"github.com/A-zanke/pharmachat/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("starting pharmachat dialogue service",
		zap.String("service", cfg.ServiceName),
		zap.String("nats_url", cfg.NatsURL),
		zap.String("classifier_backend", cfg.ClassifierBackend))

	ctx := context.Background()

	// Inventory database (catalog reads + command executor writes)
	store, err := catalog.Open(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Fatal("failed to open inventory database", zap.Error(err))
	}
	defer store.Close()

	// Session store: Redis when configured, in-process otherwise
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("using Redis session store", zap.Duration("ttl", cfg.SessionTTL))
	} else {
		sessions = session.NewCacheStore(cfg.SessionTTL, 10*time.Minute)
		logger.Info("using in-process session store", zap.Duration("ttl", cfg.SessionTTL))
	}

	// Intent classifier backend
	var provider classifier.Provider
	switch cfg.ClassifierBackend {
	case "groq":
		if cfg.GroqAPIKey == "" {
			logger.Fatal("GROQ_API_KEY environment variable is required")
		}
		provider, err = classifier.NewGroq(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL, cfg.ClassifierTimeout, logger)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Fatal("GEMINI_API_KEY environment variable is required")
		}
		provider, err = classifier.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ClassifierTimeout, logger)
	default:
		logger.Fatal("unknown classifier backend", zap.String("backend", cfg.ClassifierBackend))
	}
	if err != nil {
		logger.Fatal("failed to init classifier", zap.Error(err))
	}

	exec := executor.NewSQLite(store.DB(), logger)
	engine := dialogue.NewEngine(sessions, store, provider, exec, logger)

	natsTransport, err := transport.NewNATSTransport(cfg, engine, logger)
	if err != nil {
		logger.Fatal("failed to initialize NATS transport", zap.Error(err))
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		logger.Fatal("failed to start NATS transport", zap.Error(err))
	}

	logger.Info("pharmachat dialogue service is running",
		zap.String("turn_subject", cfg.NatsTurnSubject))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	if err := natsTransport.Close(); err != nil {
		logger.Warn("error closing NATS transport", zap.Error(err))
	}

	logger.Info("pharmachat dialogue service stopped")
}
