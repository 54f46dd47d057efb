// Package app wires the shared dependencies of the api and packer processes.
package app

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/ariefcatur/go-pack-store/internal/config"
	"github.com/ariefcatur/go-pack-store/internal/delivery"
	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/pack"
	"github.com/ariefcatur/go-pack-store/internal/payment"
	"github.com/ariefcatur/go-pack-store/internal/postgres"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Store    storage.ObjectStore
	Payments payment.Provider
	Service  *checkout.Service

	producers []*kafkax.Producer
}

// Open connects Postgres, Redis and object storage and builds the checkout
// service. Dispatcher is left for the caller.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Deps, error) {
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	store, err := storage.Open(cfg.Storage.Driver, storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	d := &Deps{DB: db, Redis: redisx.New(cfg.RedisAddr), Store: store}
	if cfg.Stripe.SecretKey != "" {
		d.Payments = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payments disabled")
	}

	d.Service = &checkout.Service{
		Orders:    &orders.Repo{DB: db},
		Packs:     &orders.PackRepo{DB: db},
		Catalog:   &orders.CatalogRepo{DB: db},
		Store:     store,
		Assembler: pack.New(store, cfg.DownloadURLTTL, log.Named("pack")),
		Payments:  d.Payments,
		Notifier:  d.notifier(cfg, log),
		Cache:     &redisx.StatusCache{Redis: d.Redis},
		Cfg: checkout.Config{
			Currency:       cfg.Currency,
			PackExpiry:     cfg.PackExpiry,
			DownloadURLTTL: cfg.DownloadURLTTL,
			PublicBaseURL:  cfg.PublicBaseURL,
		},
		Log: log.Named("checkout"),
	}
	return d, nil
}

// notifier queues emails for the notifier process when Kafka is configured
// and mails directly otherwise.
func (d *Deps) notifier(cfg config.Config, log *zap.Logger) checkout.Notifier {
	switch {
	case cfg.Async():
		p := d.Producer(cfg, orders.TopicEmailSend, log)
		return &delivery.Publisher{Publisher: p, Service: cfg.ServiceName}
	case cfg.SMTP.Host != "":
		return delivery.NewMailer(cfg.SMTP, log.Named("mail"))
	default:
		log.Warn("SMTP_HOST not set, emails are only logged")
		return delivery.LogNotifier{Log: log.Named("mail")}
	}
}

// Producer starts a producer on topic that is flushed by Close.
func (d *Deps) Producer(cfg config.Config, topic string, log *zap.Logger) *kafkax.Producer {
	p := kafkax.NewProducer(cfg.KafkaBrokers, topic, 1024, log)
	p.Start(context.Background())
	d.producers = append(d.producers, p)
	return p
}

func (d *Deps) Close() {
	for _, p := range d.producers {
		p.Close()
	}
	for _, p := range d.producers {
		p.WaitClosed()
	}
	_ = d.Redis.Close()
	d.DB.Close()
}
