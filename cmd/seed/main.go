package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"readnest/internal/auth"
	"readnest/internal/cache"
	"readnest/internal/config"
	"readnest/internal/db"
	"readnest/internal/logging"
	"readnest/internal/repository"
	"readnest/internal/seed"
	"readnest/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	logger := logging.Component("seed")
	logger.Info().Msg("starting seed")

	gormDB, err := db.Open(cfg.DB.DSN, cfg.DB.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("bcrypt init")
	}
	// Seeding never reads through the cache; a disabled client is enough.
	users := service.NewUserService(repository.NewUserRepository(gormDB), hasher, cache.New("", "", 0))

	res, err := seed.Run(context.Background(), gormDB, users, seed.Admin{
		FirstName: cfg.Seed.FirstName,
		LastName:  cfg.Seed.LastName,
		Email:     cfg.Seed.Email,
		Password:  cfg.Seed.Password,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}

	logger.Info().
		Int("books_created", res.Books).
		Bool("admin_created", res.AdminCreated).
		Msg("seed completed")
}
