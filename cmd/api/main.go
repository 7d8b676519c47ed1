package main

import (
	"context"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/config"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/httpx"
	kafkax "github.com/cosmic-community/digital-cowboys-portfolio-website/internal/kafka"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/materializer"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/postgres"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/reconcile"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redisx"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
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
	if cfg.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			log.Error("db migrate", "err", err)
			os.Exit(1)
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers: order.confirmed & checkout.session.completed
	confirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024, log)
	confirmed.Start(ctx)
	settled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicCheckoutSessionComplete, 1024, log)
	settled.Start(ctx)

	// Processor, materializer, initiator
	processor := payment.NewBreaker(payment.NewStripe(cfg.StripeSecretKey), payment.BreakerConfig{}, log)
	store := &orders.Repo{DB: db}
	mat := materializer.New(processor, store, materializer.Config{
		FlatShipping:     cfg.FlatShipping,
		ProcessorTimeout: cfg.ProcessorTimeout,
		StoreTimeout:     cfg.StoreTimeout,
		ServiceName:      cfg.ServiceName,
	}, log, materializer.WithRedis(rdb), materializer.WithPublisher(confirmed))
	initiator := checkout.NewInitiator(processor, checkout.Config{
		BaseURL: cfg.PublicBaseURL,
		Timeout: cfg.ProcessorTimeout,
	}, log)

	limiter := httpx.NewIPRateLimiter(cfg.CheckoutRPS, cfg.CheckoutBurst)
	go limiter.Run(ctx)

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{Initiator: initiator, Limiter: limiter}).Register(router)
	(&httpx.OrdersHandler{Materializer: mat, Store: store, Redis: rdb}).Register(router)
	if cfg.StripeWebhookSecret != "" {
		(&httpx.WebhookHandler{
			Parser: payment.NewWebhookVerifier(cfg.StripeWebhookSecret),
			Sink:   &reconcile.Enqueuer{Producer: settled, ServiceName: cfg.ServiceName},
			Log:    log.With("component", "webhook"),
		}).Register(router)
	} else {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, webhook fallback disabled")
	}

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	confirmed.Close() // flush & close writer
	settled.Close()
	cancel()
	confirmed.WaitClosed()
	settled.WaitClosed()
}
