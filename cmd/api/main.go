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

	"github.com/ariefcatur/go-pack-store/internal/app"
	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/ariefcatur/go-pack-store/internal/config"
	"github.com/ariefcatur/go-pack-store/internal/httpx"
	"github.com/ariefcatur/go-pack-store/internal/logger"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/postgres"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
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
	lg := logger.L().With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup", zap.Error(err))
	}
	if err := postgres.Migrate(ctx, deps.DB, lg); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	// Pack assembly: packer over Kafka when brokers are set, in-process otherwise
	svc := deps.Service
	var inline *checkout.InlineDispatcher
	if cfg.Async() {
		svc.Dispatcher = &checkout.KafkaDispatcher{
			Publisher: deps.Producer(cfg, orders.TopicPackRequested, lg),
			Service:   cfg.ServiceName,
		}
	} else {
		inline = checkout.NewInlineDispatcher(svc.Build, cfg.AssemblyTimeout, lg.Named("dispatch"))
		svc.Dispatcher = inline
	}

	// Expired pack cleanup
	sw := &sweeper.Sweeper{Packs: svc.Packs, Store: deps.Store, Log: lg.Named("sweeper")}
	go sw.Run(ctx, cfg.CleanupInterval)

	router := httpx.NewRouter(cfg.FrontendOrigin)
	(&httpx.StoreHandler{
		Svc:      svc,
		Payments: deps.Payments,
		Dedup:    &redisx.Dedup{Redis: deps.Redis, Service: "stripe-webhook"},
		Log:      lg.Named("http"),
	}).Register(router)
	(&httpx.AdminHandler{Svc: svc, Token: cfg.AdminToken, Log: lg.Named("admin")}).Register(router)
	if cfg.AdminToken == "" {
		lg.Warn("ADMIN_TOKEN not set, admin routes are locked")
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	// graceful shutdown
	go func() {
		lg.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("async", cfg.Async()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel() // stop sweeper
	if inline != nil {
		inline.Wait() // let running builds finish
	}
	deps.Close()
}
