// Command sweep runs one cleanup pass over expired packs and exits.
package main

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/config"
	"github.com/ariefcatur/go-pack-store/internal/logger"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/postgres"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"github.com/ariefcatur/go-pack-store/internal/sweeper"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := logger.Init(cfg.IsDev()); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L().With(zap.String("service", cfg.ServiceName+"-sweep"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.Open(cfg.Storage.Driver, storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		lg.Fatal("storage", zap.Error(err))
	}

	sw := &sweeper.Sweeper{Packs: &orders.PackRepo{DB: db}, Store: store, Log: lg}
	res, err := sw.Once(ctx)
	if err != nil {
		lg.Fatal("sweep", zap.Error(err))
	}
	lg.Info("done", zap.Int("purged", res.Purged), zap.Int("failed", res.Failed))
}
