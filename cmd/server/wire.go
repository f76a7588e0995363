// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"identity_backend/internal/accesscontrol"
	"identity_backend/internal/app"
	"identity_backend/internal/auth"
	"identity_backend/internal/config"
	"identity_backend/internal/filestorage"
	"identity_backend/internal/platform/database"
	"identity_backend/internal/platform/logger"
	"identity_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,

		// Storage
		user.NewGORMRepository,
		user.NewGORMRefreshTokenRepository,
		provideFileStorage,
		wire.Bind(new(user.ImageStore), new(*filestorage.FileStorageService)),

		// Auth core
		provideTokenService,
		accesscontrol.Default,
		auth.NewGate,
		provideAuthService,
		auth.NewOAuthService,
		auth.NewCookieConfig,

		// Handlers
		auth.NewHandler,
		provideUserService,
		user.NewHandler,

		// Jobs
		provideCleanupJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
