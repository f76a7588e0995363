// File: cmd/server/main.go
package main

import (
	"context"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"identity_backend/internal/auth"
	"identity_backend/internal/config"
	"identity_backend/internal/jobs"
	"identity_backend/internal/platform/database"
	"identity_backend/internal/platform/logger"
	"identity_backend/internal/user"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate()
			return
		case "purge-tokens":
			runPurgeTokens()
			return
		}
	}

	// Default: Start server
	startServer()
}

// runMigrate applies the schema and exits.
func runMigrate() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for migrate: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for migrate: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	cfg.DBAutoMigrate = false
	db, cleanup, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for migrate", zap.Error(err))
	}
	defer cleanup()

	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("FATAL: Migration failed", zap.Error(err))
	}
	appLogger.Info("Migration completed successfully.")
}

// runPurgeTokens deletes expired refresh tokens once, outside the cron schedule.
func runPurgeTokens() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for purge: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for purge: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	db, cleanup, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for purge", zap.Error(err))
	}
	defer cleanup()

	tokens, err := auth.NewTokenService(auth.NewTokenConfig(cfg), user.NewGORMRefreshTokenRepository(db), appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize token service for purge", zap.Error(err))
	}
	jobs.NewRefreshTokenCleanupJob(tokens, "", appLogger).RunOnce()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout())
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
