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

	"github.com/identitykit/identity-core/internal/api"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/service"
	"github.com/identitykit/identity-core/internal/infrastructure/config"
	mongodb "github.com/identitykit/identity-core/internal/infrastructure/db/mongo"
	redisdb "github.com/identitykit/identity-core/internal/infrastructure/db/redis"
	"github.com/identitykit/identity-core/internal/infrastructure/notify"
	"github.com/identitykit/identity-core/internal/infrastructure/queue"
	"github.com/identitykit/identity-core/internal/infrastructure/security"
	"github.com/identitykit/identity-core/pkg/logger"
)

func main() {
	cfg := config.Load(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(rootCtx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(rootCtx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewRefreshTokenRepository(db)
	if err := userRepo.EnsureIndexes(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := tokenRepo.EnsureIndexes(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("refresh token index creation failed")
	}

	dispatcher := queue.NewDispatcher(cfg.NotificationWorkers, notify.NewLogNotifier(log), log)
	dispatcher.Start(rootCtx)

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	policy := domain.DefaultPasswordPolicy()

	tokenService := service.NewTokenService(service.TokenSettings{
		Secrets: map[domain.TokenType]string{
			domain.TokenTypeAccess:            cfg.Token.AccessSecret,
			domain.TokenTypeRefresh:           cfg.Token.RefreshSecret,
			domain.TokenTypeEmailVerification: cfg.Token.EmailVerificationSecret,
			domain.TokenTypePasswordReset:     cfg.Token.PasswordResetSecret,
		},
		TTLs: map[domain.TokenType]time.Duration{
			domain.TokenTypeAccess:            cfg.Token.AccessTTL,
			domain.TokenTypeRefresh:           cfg.Token.RefreshTTL,
			domain.TokenTypeEmailVerification: cfg.Token.EmailVerificationTTL,
			domain.TokenTypePasswordReset:     cfg.Token.PasswordResetTTL,
		},
	}, tokenRepo, redisdb.NewRevocationList(rdb), log)

	// Mongo's TTL monitor lags by up to a minute and never touches revoked
	// rows; the sweep keeps the collection tight either way.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				removed, err := tokenRepo.DeleteExpired(rootCtx, time.Now().UTC())
				if err != nil {
					log.Error().Err(err).Msg("refresh token sweep failed")
					continue
				}
				if removed > 0 {
					log.Debug().Int64("removed", removed).Msg("swept dead refresh tokens")
				}
			}
		}
	}()

	authService := service.NewAuthService(userRepo, tokenService, hasher, dispatcher, policy, log)
	userService := service.NewUserService(userRepo, hasher, policy, service.NewAuthorizationService(), log)

	e := api.NewRouter(api.Dependencies{
		AuthService:  authService,
		TokenService: tokenService,
		UserService:  userService,
		Users:        userRepo,
		Mongo:        db,
		Redis:        rdb,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("graceful shutdown completed")
}
