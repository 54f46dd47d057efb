package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-pack-store/internal/config"
	"github.com/ariefcatur/go-pack-store/internal/delivery"
	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/logger"
	"github.com/ariefcatur/go-pack-store/internal/orders"
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
	lg := logger.L().With(zap.String("service", cfg.ServiceName+"-notifier"))
	if !cfg.Async() || cfg.SMTP.Host == "" {
		lg.Fatal("KAFKA_BROKERS and SMTP_HOST are required for the notifier")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	w := &delivery.Worker{
		Sender: delivery.NewMailer(cfg.SMTP, lg.Named("mail")),
		Dedup:  &redisx.Dedup{Redis: rdb, Service: "notifier"},
		Log:    lg,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicEmailSend, 2, lg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		lg.Info("notifier consumer started")
		if err := cons.Start(ctx, w.HandlePackReady); err != nil {
			lg.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

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
