package app

import (
	"context"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/aq2208/order-api/configs"
	"github.com/aq2208/order-api/internal/adapter/cache"
	"github.com/aq2208/order-api/internal/adapter/http"
	"github.com/aq2208/order-api/internal/adapter/http/middleware"
	"github.com/aq2208/order-api/internal/adapter/kafka"
	"github.com/aq2208/order-api/internal/adapter/payment"
	"github.com/aq2208/order-api/internal/adapter/queue"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/aq2208/order-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
	Server *nethttp.Server
}

// InitWithConfig wires every adapter. Redis, RabbitMQ and Kafka are optional and
// skipped when their address is empty; background consumers stop with ctx.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(logging.Options{
		Component: cfg.App.Name,
		FilePath:  cfg.App.LogFile,
		Level:     cfg.App.LogLevel,
	})
	logger.Info("order-api: Starting up...", "storage", cfg.Storage.Driver, "payment", cfg.Payment.Provider)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init storage
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, st.close)
	products := st.products

	// init redis
	var (
		idem   usecase.IdempotencyStore
		status usecase.OrderCache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("redis: %w", err))
		}
		closers = append(closers, func() { _ = rdb.Close() })

		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
		status = cache.NewRedisCache(rdb, cfg.Cache.StatusTTL)
		if cfg.Cache.ProductTTL > 0 {
			products = cache.NewCachedProducts(products, rdb, cfg.Cache.ProductTTL)
		}
	} else {
		logger.Warn("redis disabled: no idempotency, status cache or product cache")
	}

	// init rabbitmq + register [queue-handler]
	var events usecase.EventPublisher
	if cfg.Rabbit.URL != "" {
		closeRabbit, producer, err := setupQueue(ctx, cfg, status, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeRabbit)
		events = producer
	} else {
		logger.Warn("rabbitmq disabled: order events are not published")
	}

	gw := newPaymentGateway(cfg)

	// usecases
	createUC := usecase.NewCreateOrder(usecase.NewPricer(products, cfg.Pricing.MaxConcurrentLookups), st.orders, gw, idem, events)
	queries := usecase.NewOrderQueries(st.orders, status)
	paymentUC := usecase.NewUpdatePaymentStatus(st.orders, status, events)
	chargeUC := usecase.NewChargeOrder(st.orders, gw)

	// register kafka-listener
	if len(cfg.Kafka.Brokers) > 0 {
		closeKafka, err := setupKafkaListener(ctx, cfg, paymentUC, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeKafka)
	}

	// init handlers + routers + middleware
	h := http.NewOrderHandler(createUC, queries, paymentUC, chargeUC, cfg.HTTP.RequestTimeout)
	th := http.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := http.NewRouter(h, th, auth, logging.New("http"))

	srv := &nethttp.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{Router: router, Server: srv}, cleanup, nil
}

func newPaymentGateway(cfg configs.Config) usecase.PaymentGateway {
	var gw usecase.PaymentGateway
	switch cfg.Payment.Provider {
	case "stripe":
		gw = payment.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.Timeout)
	default:
		gw = payment.NewFakeGateway()
	}
	return payment.NewBreakerGateway(gw, payment.BreakerOptions{
		Name:             "payment." + cfg.Payment.Provider,
		ConsecutiveFails: cfg.Payment.BreakerFailures,
		OpenFor:          cfg.Payment.BreakerOpenFor,
		HalfOpenRequests: cfg.Payment.BreakerHalfOpenN,
	})
}

// setupQueue declares the topology, returns the producer and, when a status cache
// exists, starts the consumer that projects order events into it.
func setupQueue(ctx context.Context, cfg configs.Config, status usecase.OrderCache, logger *slog.Logger) (func(), *queue.RabbitProducer, error) {
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	closeConn := func() { _ = conn.Close() }

	pubCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := queue.DeclareTopology(pubCh, cfg.Rabbit.Exchange, cfg.Rabbit.Queue); err != nil {
		closeConn()
		return nil, nil, err
	}
	producer := queue.NewRabbitProducer(pubCh, cfg.Rabbit.Exchange)

	if status == nil {
		logger.Warn("order events consumer disabled: no status cache")
		return closeConn, producer, nil
	}

	subCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	h := queue.NewOrderEventsHandler(status)
	router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch), queue.WithTimeout(5*time.Second))
	router.Register(cfg.Rabbit.Queue, queue.JSONHandler[usecase.OrderEventMsg]{HandleFunc: h.HandleOrderEvent})
	if err := router.Start(ctx); err != nil {
		closeConn()
		return nil, nil, fmt.Errorf("rabbitmq consume: %w", err)
	}
	return closeConn, producer, nil
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, payments kafka.PaymentRecorder, logger *slog.Logger) (func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, fmt.Errorf("kafka group: %w", err)
	}

	h := kafka.NewPaymentSucceededHandler(payments)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicPayments}, h.Handle)

	// Run in background until ctx is cancelled
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("kafka consumer stopped", "err", err)
		}
	}()
	return func() { _ = grp.Close() }, nil
}
