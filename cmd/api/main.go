package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/matchday-app/notify-api/internal/bridge"
	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/config"
	"github.com/matchday-app/notify-api/internal/dispatch"
	"github.com/matchday-app/notify-api/internal/domain"
	"github.com/matchday-app/notify-api/internal/infrastructure/attest"
	"github.com/matchday-app/notify-api/internal/infrastructure/dynamo"
	"github.com/matchday-app/notify-api/internal/infrastructure/identity"
	"github.com/matchday-app/notify-api/internal/infrastructure/pushprovider"
	"github.com/matchday-app/notify-api/internal/resolver"
	transporthttp "github.com/matchday-app/notify-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Identity provider (optional — graceful fallback if keys are missing).
	var idProvider *identity.Provider
	if p, err := identity.NewProvider(cfg); err == nil {
		idProvider = p
	} else {
		logger.Warn("identity provider not available, auth disabled", "error", err)
	}

	// Durable cache backing store. Falls back to process memory when the
	// directory can't be created.
	var store cache.Store
	if fs, err := cache.NewFileStore(cfg.CacheDir); err == nil {
		store = fs
	} else {
		logger.Warn("cache dir unavailable, caching in memory only", "error", err)
		store = cache.NewMemStore()
	}

	inboxCache := cache.New[[]domain.Notification](store, "notif:", cfg.NotifCacheTTL, cfg.CacheCapacity, logger)
	memberCache := cache.New[[]string](store, "members:", cfg.MemberCacheTTL, cfg.CacheCapacity, logger)
	tokenCache := cache.New[[]string](store, "tokens:", cfg.TokenCacheTTL, cfg.CacheCapacity, logger)

	memberRepo := dynamo.NewGroupMemberRepo(dynamoClient, cfg.DynamoTables.GroupMembers)
	tokenRepo := dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.UserTokens)
	res := resolver.New(memberRepo, tokenRepo, memberCache, tokenCache)

	// Device registration provider (optional — platforms without a platform
	// application ARN run without push registration).
	var pushProv pushprovider.Provider
	if p, err := pushprovider.NewSNS(cfg); err == nil {
		pushProv = p
	} else {
		logger.Warn("push provider not available", "error", err)
	}

	var attestSrc dispatch.AttestSource = attest.None{}
	if cfg.AttestURL != "" {
		attestSrc = attest.NewHTTPSource(cfg.AttestURL)
	}
	var bearer dispatch.BearerSource
	if idProvider != nil {
		bearer = idProvider
	}
	dispatcher := dispatch.New(cfg.PushEndpointURL, cfg.PushTimeout, bearer, attestSrc, logger)

	var strategy dispatch.Strategy
	if cfg.PushDispatchMode == "tokens" {
		strategy = dispatch.NewTokenStrategy(dispatcher, res)
	} else {
		strategy = dispatch.NewIdentityStrategy(dispatcher)
	}

	hub := bridge.NewHub(logger)
	hub.Start()

	deps := &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		TokenRepo:        tokenRepo,
		Resolver:         res,
		Push:             strategy,
		PushProvider:     pushProv,
		LocalStore:       store,
		InboxCache:       inboxCache,
		IdentityProvider: idProvider,
		Hub:              hub,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	logger.Info("server stopped")
}
