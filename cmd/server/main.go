package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/api"
	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/config"
	"github.com/outreach/outreach-chat/internal/database"
	"github.com/outreach/outreach-chat/internal/logging"
	"github.com/outreach/outreach-chat/internal/providers/factory"
	"github.com/outreach/outreach-chat/internal/repository"
	"github.com/outreach/outreach-chat/internal/repository/memory"
	"github.com/outreach/outreach-chat/internal/repository/postgres"
	"github.com/outreach/outreach-chat/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("OUTREACH_CONFIG"), "path to config.json")
	migrateDown := flag.Bool("migrate-down", false, "roll back the last postgres migration and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Log.Level, os.Stdout)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	if *migrateDown {
		if err := database.RollbackMigration(cfg.Database); err != nil {
			logger.WithError(err).Fatal("Failed to roll back migration")
		}
		logger.Info("Rolled back the last migration")
		return
	}

	sessions, cleanup, err := openStorage(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open session storage")
	}
	defer cleanup()

	provider, err := factory.CreateProvider(cfg.Assistant, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create assistant provider")
	}

	jwtSecret := cfg.Server.JWTSecret
	if jwtSecret == "" {
		jwtSecret = config.DevJWTSecret
		logger.Warn("Using default JWT secret. Set OUTREACH_JWT_SECRET in production!")
	}

	app := api.NewApp(api.Options{
		Chat:        services.NewChatService(sessions, provider, cfg.Chat.DefaultTitle, logger),
		JWT:         auth.NewJWTService(jwtSecret, config.TokenIssuer, auth.AccessTokenTTL),
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,

		APIRateMax:     cfg.Server.RateLimit.APIMax,
		APIRateWindow:  cfg.Server.RateLimit.APIWindow,
		ChatRateMax:    cfg.Server.RateLimit.ChatMax,
		ChatRateWindow: cfg.Server.RateLimit.ChatWindow,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"address":  cfg.Server.Address(),
		"storage":  cfg.Server.Storage,
		"provider": provider.Name(),
	}).Info("Outreach chat API starting")

	if err := app.Listen(cfg.Server.Address()); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

func openStorage(cfg *config.Config, logger *logrus.Logger) (repository.SessionRepository, func(), error) {
	switch cfg.Server.Storage {
	case "", "memory":
		return memory.NewSessionRepository(), func() {}, nil

	case "postgres":
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(cfg.Database); err != nil {
			db.Close()
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		logger.WithFields(logrus.Fields{
			"driver": cfg.Database.Driver,
			"host":   cfg.Database.Host,
			"db":     cfg.Database.Database,
		}).Info("Connected to PostgreSQL")
		return postgres.NewSessionRepository(db.DB), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Server.Storage)
	}
}
