package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"readnest/docs"
	"readnest/internal/auth"
	"readnest/internal/cache"
	"readnest/internal/config"
	"readnest/internal/db"
	"readnest/internal/events"
	"readnest/internal/handler"
	"readnest/internal/logging"
	"readnest/internal/repository"
	"readnest/internal/router"
	"readnest/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title ReadNest API
// @version 1.0
// @description Library backend: members, catalogue, loans and JWT sessions with refresh-token rotation.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	logger := logging.Component("server")

	gormDB, err := db.Open(cfg.DB.DSN, cfg.DB.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init")
	}

	if cfg.DB.Reset {
		logger.Warn().Msg("DB_RESET=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Fatal().Err(err).Msg("reset database")
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var publisher events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("session events go to kafka")
	}

	// Initialize auth components
	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:         []byte(cfg.JWT.Secret),
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		AccessTokenTTL: time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt init")
	}
	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("bcrypt init")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewRefreshTokenRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	loanRepo := repository.NewBookLoanRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenRepo, jwtService, hasher, publisher)
	userService := service.NewUserService(userRepo, hasher, cacheClient)
	bookService := service.NewBookService(bookRepo, cacheClient)
	loanService := service.NewBookLoanService(loanRepo, cacheClient)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, jwtService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserHandler(userService),
		Books:    handler.NewBookHandler(bookService),
		BookLoan: handler.NewBookLoanHandler(loanService),
	})

	docs.SwaggerInfo.Host = cfg.Swagger.Host
	addr := ":" + cfg.Server.Port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", addr).Msg("listening; swagger under /swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("close publisher")
	}
	if err := cacheClient.Close(); err != nil {
		logger.Error().Err(err).Msg("close cache")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
