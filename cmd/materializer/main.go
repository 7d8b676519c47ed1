package main

import (
	"context"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/config"
	kafkax "github.com/cosmic-community/digital-cowboys-portfolio-website/internal/kafka"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/materializer"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/postgres"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/reconcile"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redisx"
	"github.com/joho/godotenv"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	cfg.ServiceName += "-materializer"
	log, err := cfg.Bootstrap(os.Stdout)
	if err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolConfig{StatementTimeout: cfg.StoreTimeout})
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: order.confirmed untuk order yang baru dibuat lewat jalur webhook
	confirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024, log)
	confirmed.Start(ctx)

	processor := payment.NewBreaker(payment.NewStripe(cfg.StripeSecretKey), payment.BreakerConfig{}, log)
	mat := materializer.New(processor, &orders.Repo{DB: db}, materializer.Config{
		FlatShipping:     cfg.FlatShipping,
		ProcessorTimeout: cfg.ProcessorTimeout,
		StoreTimeout:     cfg.StoreTimeout,
		ServiceName:      cfg.ServiceName,
	}, log, materializer.WithRedis(rdb), materializer.WithPublisher(confirmed))

	// Service
	svc := &reconcile.Service{
		Materializer: mat,
		Redis:        rdb,
		ServiceName:  cfg.ServiceName,
		Log:          log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.MaterializerGroup, orders.TopicCheckoutSessionComplete, cfg.MaterializerWorkers, log)

	go func() {
		log.Info("materializer consumer started",
			"group", cfg.MaterializerGroup, "topic", orders.TopicCheckoutSessionComplete, "workers", cfg.MaterializerWorkers)
		if err := cons.Start(ctx, svc.HandleSessionCompleted); err != nil {
			log.Error("consumer exit", "err", err)
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
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	confirmed.Close()
	confirmed.WaitClosed()
}
