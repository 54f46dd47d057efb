package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-pack-store/internal/app"
	"github.com/ariefcatur/go-pack-store/internal/config"
	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/logger"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/packer"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
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
	lg := logger.L().With(zap.String("service", cfg.ServiceName+"-packer"))
	if !cfg.Async() {
		lg.Fatal("KAFKA_BROKERS is required for the packer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup", zap.Error(err))
	}
	defer deps.Close()

	svc := &packer.Service{
		Builder: deps.Service,
		Dedup:   &redisx.Dedup{Redis: deps.Redis, Service: "packer"},
		Log:     lg,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PackerGroup, orders.TopicPackRequested, cfg.PackerWorkers, lg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		lg.Info("packer consumer started", zap.Int("workers", cfg.PackerWorkers))
		if err := cons.Start(ctx, svc.HandlePackRequested); err != nil {
			lg.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	lg.Info("shutting down consumer...")
	cancel()
	<-done
}
