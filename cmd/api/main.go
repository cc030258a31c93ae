package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/aggregator"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	collectionrepo "storefront/internal/repository/collection"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	collectionsvc "storefront/internal/service/collection"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.Production(), "api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_URL not set, catalog cache and rate limiting disabled")
	}
	catalogCache := cache.New(rdb, cfg.CatalogCacheTTL, logger.Named("cache"))

	productRepo := productrepo.NewPostgres(dbpool, logger.Named("product_repo"))
	productService := productsvc.New(productRepo, catalogCache, logger.Named("product_service"))
	collectionRepo := collectionrepo.NewPostgres(dbpool, logger.Named("collection_repo"))
	collectionService := collectionsvc.New(collectionRepo, catalogCache, logger.Named("collection_service"))
	cartRepo := cartrepo.NewPostgres(dbpool, logger.Named("cart_repo"))
	cartService := cartsvc.New(cartRepo, productService, aggregator.New(cfg.FallbackCurrency), cfg.CheckoutBaseURL, logger.Named("cart_service"))

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Products:         productService,
		Collections:      collectionService,
		Carts:            cartService,
		Limiter:          cache.NewLimiter(rdb, cfg.RateLimit, time.Minute),
		RevalidateSecret: cfg.RevalidateSecret,
		CORSOrigins:      cfg.CORSOrigins,
	}, cfg.Production())

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
