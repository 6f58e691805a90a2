package main

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/forecasthub/service-credentials/config"
	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/cache"
	"github.com/forecasthub/service-credentials/service/events"
	"github.com/forecasthub/service-credentials/service/handlers"
	"github.com/forecasthub/service-credentials/service/repository"
	"github.com/gorilla/securecookie"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
	"github.com/redis/go-redis/v9"
)

// HS256 keys shorter than the hash output weaken the MAC.
const minTokenSigningSecretLength = 32

func main() {

	ctx := context.Background()
	serviceName := "service_credentials"

	cfg, err := frame.ConfigLoadWithOIDC[config.CredentialConfig](ctx)
	if err != nil {
		util.Log(ctx).WithError(err).Fatal("could not process configs")
		return
	}

	ctx, svc := frame.NewServiceWithContext(ctx, serviceName, frame.WithConfig(&cfg))
	log := svc.Log(ctx)

	// Handle database migration if requested
	if handleDatabaseMigration(ctx, svc, cfg, log) {
		return
	}

	limitStore := rateLimitStore(ctx, &cfg)

	maxAttempts, window, blockDuration := cfg.RateLimitConfig()
	limiter := business.NewRateLimiter(limitStore, business.RateLimitConfig{
		MaxFailedAttempts: maxAttempts,
		TrackingWindow:    window,
		BlockDuration:     blockDuration,
	})

	// An empty or guessable signing secret would let anyone mint bearer
	// tokens, so refuse to come up without real key material.
	if len(cfg.TokenSigningSecret) < minTokenSigningSecretLength {
		log.WithField("min_length", minTokenSigningSecretLength).
			Fatal("main -- token signing secret is missing or too short")
	}

	hashKey, err := hex.DecodeString(cfg.SecureCookieHashKey)
	if err != nil {
		log.WithError(err).Fatal("main -- supplied hash key is not valid hex")
	}
	blockKey, err := hex.DecodeString(cfg.SecureCookieBlockKey)
	if err != nil {
		log.WithError(err).Fatal("main -- supplied block key is not valid hex")
	}

	srv := handlers.NewAuthServer(ctx, svc, &cfg, limiter, securecookie.New(hashKey, blockKey))

	serviceOptions := []frame.Option{
		frame.WithDatastore(),
		frame.WithHTTPHandler(srv.SetupRouterV1(ctx)),
		frame.WithRegisterEvents(
			events.NewSessionCreatedEventHandler(svc),
		),
	}

	svc.Init(ctx, serviceOptions...)

	log.WithField("server http port", cfg.HTTPPort()).
		Info(" Initiating server operations")
	err = svc.Run(ctx, "")
	if err != nil {
		log = log.WithError(err)

		if errors.Is(err, context.Canceled) {
			log.Error("server stopping")
		} else {
			log.Fatal("server stopping with error")
		}
	}
}

// rateLimitStore picks the rate limit backend: redis when configured, the
// single instance in memory store otherwise.
func rateLimitStore(ctx context.Context, cfg *config.CredentialConfig) cache.Store {
	if cfg.RedisURI == "" {
		return cache.NewMemoryStore()
	}

	opts, err := redis.ParseURL(cfg.RedisURI)
	if err != nil {
		util.Log(ctx).WithError(err).Fatal("could not parse redis uri")
	}
	return cache.NewRedisStore(redis.NewClient(opts), cfg.CacheKeyPrefix)
}

// handleDatabaseMigration performs database migration if configured to do so.
func handleDatabaseMigration(
	ctx context.Context,
	svc *frame.Service,
	cfg config.CredentialConfig,
	log *util.LogEntry,
) bool {
	serviceOptions := []frame.Option{frame.WithDatastore()}

	if cfg.DoDatabaseMigrate() {
		svc.Init(ctx, serviceOptions...)

		err := repository.Migrate(ctx, svc)
		if err != nil {
			log.WithError(err).Fatal("main -- Could not migrate successfully")
		}
		return true
	}
	return false
}
