package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/sentinela/identity-service/docs"
	"github.com/sentinela/identity-service/internal/api"
	"github.com/sentinela/identity-service/internal/core/service"
	"github.com/sentinela/identity-service/internal/infrastructure/config"
	mongodb "github.com/sentinela/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/sentinela/identity-service/internal/infrastructure/db/redis"
	"github.com/sentinela/identity-service/internal/infrastructure/notify"
	"github.com/sentinela/identity-service/internal/infrastructure/queue"
	"github.com/sentinela/identity-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Sentinela Identity API
// @version      1.0
// @description  Identity and access control service for the Sentinela incident-reporting portal.
// @BasePath     /
//
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	accountRepo := mongodb.NewAccountRepository(db)
	if err := accountRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	seed, err := service.BootstrapAccounts(service.Config{BcryptCost: cfg.Identity.BcryptCost})
	if err != nil {
		log.Fatal().Err(err).Msg("seed generation failed")
	}
	if err := accountRepo.SeedIfEmpty(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	limiter := redisdb.NewRateLimiter(rdb, cfg.Identity.LockoutThreshold, cfg.Identity.LockoutWindow)
	tokens := redisdb.NewResetTokenStore(rdb)

	sender := notify.NewLogSender(cfg.Identity.ResetBaseURL, log)
	dispatcher := queue.NewDispatcher(cfg.Identity.NotifyWorkers, sender, log)
	dispatcher.Start(ctx)

	identity := service.NewIdentityService(accountRepo, limiter, tokens, dispatcher, service.Config{
		JWTSecret:            cfg.JWTSecret,
		JWTTTL:               cfg.Identity.SessionTTL,
		ResetTokenTTL:        cfg.Identity.ResetTokenTTL,
		MinPasswordScore:     cfg.Identity.MinPasswordScore,
		InstitutionalDomains: cfg.Identity.InstitutionalDomains,
		BcryptCost:           cfg.Identity.BcryptCost,
	}, log)

	e := api.NewRouter(identity, db, rdb, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
