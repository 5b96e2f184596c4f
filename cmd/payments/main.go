package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/infrastructure/gateway"
	"github.com/gonomads/payment-service/internal/infrastructure/lock"
	"github.com/gonomads/payment-service/internal/infrastructure/messaging"
	"github.com/gonomads/payment-service/internal/infrastructure/metrics"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/memory"
	"github.com/gonomads/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/gonomads/payment-service/internal/interfaces/rest/handlers"
	"github.com/gonomads/payment-service/internal/interfaces/rest/server"
	"github.com/gonomads/payment-service/internal/membership"
	"github.com/gonomads/payment-service/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	orders      application.OrderStore
	txns        application.TransactionStore
	plans       application.PlanStore
	memberships membership.Repository
	events      application.WebhookEventStore
	health      func(ctx context.Context) error
	close       func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"lock", cfg.Lock.Driver,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	paypal := gateway.NewPayPalClient(cfg.Gateway, logger)
	gatewayClient := gateway.NewRetryGatewayClient(paypal, cfg.Gateway.Retry)

	serializer, closeSerializer := newSerializer(cfg, m, logger)
	defer closeSerializer()

	publisher, publisherCloser := newPublisher(cfg, logger)
	defer func() {
		if err := publisherCloser.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	orderService, err := services.NewOrderService(
		st.orders, st.txns, st.plans, gatewayClient, publisher, m, cfg.Orders, logger,
	)
	if err != nil {
		logger.Error("failed to build order service", "error", err)
		os.Exit(1)
	}
	applier := services.NewSideEffectApplier(membership.NewService(st.memberships, logger), st.orders, m, logger)
	captureService := services.NewCaptureService(
		st.orders, st.txns, gatewayClient, applier, serializer, publisher, m, cfg.Orders, logger,
	)
	webhookService := services.NewWebhookService(
		gatewayClient, st.events, captureService, m, cfg.Gateway.WebhookID, logger,
	)
	if cfg.Gateway.WebhookID == "" {
		logger.Warn("webhook signature verification disabled, gateway.webhook_id is not set")
	}

	doc, err := api.LoadDocument(ctx)
	if err != nil {
		logger.Error("failed to load api document", "error", err)
		os.Exit(1)
	}

	h := handlers.NewHandlers(orderService, captureService, webhookService, doc, cfg.Server.DeepLinkScheme, logger)
	router := server.NewRouter(server.Options{
		Handlers:       h,
		Document:       doc,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Observer:       m,
		Health:         st.health,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Worker.Enabled {
		expirationWorker := worker.NewExpirationWorker(
			st.orders,
			publisher,
			m,
			cfg.Worker.Interval,
			cfg.Worker.BatchSize,
			logger,
		)
		reconciler := worker.NewReconciler(
			st.orders,
			captureService,
			applier,
			m,
			cfg.Worker.Interval,
			cfg.Worker.BatchSize,
			cfg.Worker.ReconcileAfter,
			logger,
		)

		go expirationWorker.Start(workerCtx)
		go reconciler.Start(workerCtx)
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			orders:      memory.NewOrderStore(),
			txns:        memory.NewTransactionStore(),
			plans:       memory.NewPlanStore(),
			memberships: memory.NewMembershipStore(),
			events:      memory.NewWebhookEventStore(),
			close:       func() {},
		}, nil
	}

	if cfg.Storage.AutoMigrate {
		if err := postgres.Migrate(&cfg.Database, logger); err != nil {
			return nil, err
		}
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &stores{
		orders:      postgres.NewOrderRepository(db),
		txns:        postgres.NewTransactionRepository(db),
		plans:       postgres.NewPlanRepository(db),
		memberships: postgres.NewMembershipRepository(db),
		events:      postgres.NewWebhookEventRepository(db),
		health:      db.Ping,
		close:       db.Close,
	}, nil
}

// newSerializer layers the redis mutex over the in-process lanes when configured.
func newSerializer(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (application.OrderSerializer, func()) {
	var serializer application.OrderSerializer = services.NewKeyedSerializer()
	closeFn := func() {}

	if cfg.Lock.Driver == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		serializer = lock.NewRedisSerializer(client, serializer, cfg.Lock.TTL, cfg.Orders.CaptureWaitTimeout, logger)
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
	}

	return lock.NewObserved(serializer, m), closeFn
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (application.EventPublisher, io.Closer) {
	if cfg.Kafka.Enabled() {
		p := messaging.NewKafkaPublisher(cfg.Kafka, logger)
		return p, p
	}
	logger.Info("kafka brokers not configured, order events are logged only")
	return messaging.NewLoggingPublisher(logger), io.NopCloser(nil)
}
