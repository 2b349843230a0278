package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/safi-group/api/internal/cache"
	"github.com/safi-group/api/internal/handlers"
	"github.com/safi-group/api/internal/platform/config"
	"github.com/safi-group/api/internal/platform/kvstore"
	"github.com/safi-group/api/internal/platform/observability"
	"github.com/safi-group/api/internal/platform/ratelimit"
	"github.com/safi-group/api/internal/platform/requestctx"
	"github.com/safi-group/api/internal/repositories/airtable"
	"github.com/safi-group/api/internal/repositories/local"
	"github.com/safi-group/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := kvstore.NewFileStore(cfg.Storage.StatePath, logger.Named("kvstore"))
	if err != nil {
		logger.Fatal("failed to open state store", zap.Error(err))
	}

	localRepo := local.NewRepository()

	var remote *airtable.Source
	if cfg.Airtable.Enabled() {
		remote, err = airtable.NewSource(airtable.Config{
			BaseURL:  cfg.Airtable.BaseURL,
			Token:    cfg.Airtable.Token,
			BaseID:   cfg.Airtable.BaseID,
			TableID:  cfg.Airtable.TableID,
			CacheTTL: cfg.Airtable.CacheTTL,
		}, nil, logger.Named("airtable"), nil)
		if err != nil {
			logger.Fatal("failed to initialise airtable source", zap.Error(err))
		}
		logger.Info("remote catalog source enabled")
	} else {
		logger.Info("remote catalog source disabled; serving local catalog")
	}

	serviceLogger := func(ctx context.Context, msg string, fields map[string]any) {
		requestctx.Logger(ctx).Info(msg, zap.Any("details", fields))
	}

	catalogDeps := services.CatalogServiceDeps{
		Local:  localRepo,
		Logger: serviceLogger,
	}
	if remote != nil {
		catalogDeps.Remote = remote
	}
	catalogService, err := services.NewCatalogService(catalogDeps)
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	events := services.NewLogRecorder(logger.Named("analytics"))

	briefLimiter := ratelimit.New(cfg.RateLimits.BriefAttempts, cfg.RateLimits.BriefWindow, nil)
	checkoutLimiter := ratelimit.New(cfg.RateLimits.CheckoutAttempts, cfg.RateLimits.CheckoutWindow, nil)

	briefService, err := services.NewBriefService(services.BriefServiceDeps{
		Store:         store,
		Catalog:       catalogService,
		Limiter:       briefLimiter,
		Events:        events,
		BusinessPhone: cfg.Site.WhatsAppPhone,
		BrandName:     cfg.Site.BrandNameEn,
		Freshness:     cfg.Storage.BriefFreshness,
	})
	if err != nil {
		logger.Fatal("failed to initialise brief service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Store:         store,
		Catalog:       catalogService,
		Limiter:       checkoutLimiter,
		Events:        events,
		BusinessPhone: cfg.Site.WhatsAppPhone,
		BrandName:     cfg.Site.BrandName,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	preferenceService, err := services.NewPreferenceService(services.PreferenceServiceDeps{
		Store:  store,
		Events: events,
	})
	if err != nil {
		logger.Fatal("failed to initialise preference service", zap.Error(err))
	}

	health := handlers.NewHealthHandlers(
		handlers.WithHealthVersion(buildVersion()),
		handlers.WithHealthCheck("state_store", stateStoreCheck(store)),
		handlers.WithHealthCheck("catalog", catalogCheck(catalogService)),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(catalogService).Routes),
		handlers.WithBriefRoutes(handlers.NewBriefHandlers(briefService).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService).Routes),
		handlers.WithPreferenceRoutes(handlers.NewPreferenceHandlers(preferenceService).Routes),
	)

	handler := http.Handler(router)
	if cfg.Cache.Enabled {
		handler = newAssetLayer(ctx, cfg.Cache, router, logger.Named("cache"))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("safi api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newAssetLayer builds the offline-capable static asset handler and mounts
// the API router beside it. API and health paths bypass the cache.
func newAssetLayer(ctx context.Context, cfg config.CacheConfig, api http.Handler, logger *zap.Logger) http.Handler {
	assets := http.FileServer(http.Dir(cfg.AssetsDir))

	manager := cache.NewManager(logger, nil)
	manager.Install(ctx, cfg.Version, cfg.CoreAssets, cache.HandlerFetcher(assets))
	manager.Activate()

	cached := cache.NewHandler(manager, assets, nil, logger)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/healthz" || path == "/readyz" {
			api.ServeHTTP(w, r)
			return
		}
		cached.ServeHTTP(w, r)
	})
}

func stateStoreCheck(store kvstore.Store) handlers.HealthCheck {
	return func(ctx context.Context) error {
		blob := kvstore.Blob{Data: []byte(`"ping"`), SavedAt: time.Now().UTC()}
		if !store.Set(ctx, "healthcheck", blob) {
			return errors.New("state store write failed")
		}
		if _, ok := store.Get(ctx, "healthcheck"); !ok {
			return errors.New("state store read failed")
		}
		return nil
	}
}

func catalogCheck(catalog services.CatalogService) handlers.HealthCheck {
	return func(ctx context.Context) error {
		products, err := catalog.Products(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("SAFI_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
