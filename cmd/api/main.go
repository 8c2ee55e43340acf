package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zatekoja/adminconsole/internal/adapters/cache"
	"github.com/zatekoja/adminconsole/internal/adapters/database"
	"github.com/zatekoja/adminconsole/internal/adapters/events"
	"github.com/zatekoja/adminconsole/internal/adapters/preferences"
	"github.com/zatekoja/adminconsole/internal/api/handlers"
	"github.com/zatekoja/adminconsole/internal/api/routes"
	"github.com/zatekoja/adminconsole/internal/application/services"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/redis"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	resultcache "github.com/zatekoja/adminconsole/internal/query/cache"
	"github.com/zatekoja/adminconsole/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-api", cfg.Log.Env, cfg.Log.Level)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs the shared page cache, the event bus and sort preferences.
	// Without it every instance keeps its own state.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		sortStore     providers.SortStore
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, running without shared cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			sortStore = preferences.NewRedisSortStore(redisClient.Client())
		}
	}
	if eventBus == nil {
		eventBus = events.NewLocalEventBus()
	}
	if sortStore == nil {
		sortStore = preferences.NewMemorySortStore()
	}

	// Lists
	auditDef := database.AuditLogList()
	auditCacheOpts := resultcache.Options[entities.AuditEntry]{
		StaleTime:    cfg.List.StaleTime,
		MaxEntries:   cfg.List.CacheSize,
		FetchTimeout: cfg.List.FetchTimeout,
	}
	if cacheProvider != nil {
		auditCacheOpts.Shared = cache.NewPageStore[entities.AuditEntry](cacheProvider, cfg.List.L2TTL)
	}
	auditCache, err := resultcache.New[entities.AuditEntry](auditCacheOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create result cache")
	}

	auditList := services.NewListService[entities.AuditEntry](services.ListServiceConfig{
		ListID: auditDef.ListID,
		ParseOptions: entities.ParseOptions{
			DefaultPageSize: cfg.List.PageSize,
			MaxPageSize:     100,
			FacetKeys:       auditDef.FacetKeys(),
			SortFields:      auditDef.SortFields(),
		},
		SearchMinLength: cfg.List.SearchMinLength,
	}, database.NewListAdapter(pgClient, auditDef, metrics), auditCache, metrics)

	hostname, _ := os.Hostname()
	invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus, hostname)
	invalidation.Register(auditList)
	if err := invalidation.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to start cache invalidation service")
	}

	sortPrefs := services.NewSortPreferenceService(sortStore, map[string]entities.SortState{
		auditDef.ListID: auditDef.DefaultSort,
	})

	router := routes.NewRouter(
		handlers.NewListHandler(invalidation, auditList),
		handlers.NewSortHandler(sortPrefs),
		splitOrigins(cfg.Server.AllowedOrigins),
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.List.FetchTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	invalidation.Stop()
	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing event bus")
	}

	logger.Info().Msg("server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
