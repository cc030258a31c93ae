package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/logging"
	"storefront/internal/repository/collection"
	"storefront/internal/repository/product"
)

func main() {
	var (
		filePath string
		currency string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV file")
	flag.StringVar(&currency, "currency", "", "Currency for rows without variant.currency (default FALLBACK_CURRENCY)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if currency == "" {
		currency = cfg.FallbackCurrency
	}
	logger, err := logging.New(cfg.Production(), "importer")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), collection.NewPostgres(pool, logger), currency, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	// A running API may hold stale catalog entries.
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("skip cache invalidation", zap.Error(err))
		} else {
			defer rdb.Close()
			if err := cache.New(rdb, 0, logger).InvalidateTags(ctx, cache.TagProducts, cache.TagCollections); err != nil {
				logger.Warn("cache invalidation failed", zap.Error(err))
			}
		}
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
