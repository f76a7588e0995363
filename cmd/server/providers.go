// File: cmd/server/providers.go
package main

import (
	"path/filepath"

	"identity_backend/internal/auth"
	"identity_backend/internal/config"
	"identity_backend/internal/filestorage"
	"identity_backend/internal/jobs"
	"identity_backend/internal/user"

	"go.uber.org/zap"
)

func provideTokenService(cfg *config.Config, tokens user.RefreshTokenRepository, logger *zap.Logger) (*auth.TokenService, error) {
	if cfg.EphemeralJWTSecret {
		logger.Warn("JWT_SECRET is not set; using a random per-process secret. Tokens will not survive a restart.")
	}
	return auth.NewTokenService(auth.NewTokenConfig(cfg), tokens, logger)
}

func provideAuthService(cfg *config.Config, users user.Repository, tokens *auth.TokenService, logger *zap.Logger) *auth.Service {
	return auth.NewService(users, tokens, cfg.BcryptCost, logger)
}

func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.FileStorageService, error) {
	return filestorage.NewFileStorageService(filepath.Clean(cfg.UploadDir), cfg.ImagePrefix, logger)
}

func provideUserService(cfg *config.Config, repo user.Repository, images user.ImageStore, logger *zap.Logger) *user.Service {
	return user.NewService(repo, images, cfg.UserImageFolder, logger)
}

func provideCleanupJob(cfg *config.Config, tokens *auth.TokenService, logger *zap.Logger) *jobs.RefreshTokenCleanupJob {
	return jobs.NewRefreshTokenCleanupJob(tokens, cfg.RefreshTokenCleanupSchedule, logger)
}
