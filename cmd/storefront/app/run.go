package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aq2208/gorder-storefront/configs"
	"github.com/aq2208/gorder-storefront/internal/adapter/cache"
	httpadapter "github.com/aq2208/gorder-storefront/internal/adapter/http"
	"github.com/aq2208/gorder-storefront/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-storefront/internal/adapter/kafka"
	"github.com/aq2208/gorder-storefront/internal/adapter/observ"
	"github.com/aq2208/gorder-storefront/internal/adapter/queue"
	"github.com/aq2208/gorder-storefront/internal/adapter/repo"
	"github.com/aq2208/gorder-storefront/internal/catalog"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/security"
	"github.com/aq2208/gorder-storefront/internal/session"
	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

type App struct {
	Server   *http.Server
	Sessions *session.Manager

	cfg        configs.Config
	log        *slog.Logger
	background []func(ctx context.Context)
}

// InitWithConfig builds the storefront. Optional backends (MySQL or Postgres,
// Redis, RabbitMQ, Kafka) are only wired when configured; without them orders and
// idempotency keys live in memory.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, logging.Options{
		FilePath: cfg.App.LogFile,
		Level:    cfg.App.LogLevel,
	})
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	var closers []func()
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		})
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.Telemetry.Tracing {
		shutdown, err := observ.InitTracing(cfg.App.Name, cfg.App.Version, os.Stdout)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		})
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fail(fmt.Errorf("load catalog: %w", err))
	}

	// orders
	var orderRepo usecase.OrderRepo = repo.NewMemoryOrderRepo()
	if cfg.MySQL.DSN != "" {
		db, err := openMySQL(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = db.Close() })
		orderRepo = repo.NewMySQLOrderRepo(db)
	} else if cfg.Postgres.DSN != "" {
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = db.Close() })
		orderRepo = repo.NewPostgresOrderRepo(db)
	}

	// status cache + idempotency
	var orderCache usecase.OrderCache
	var idem usecase.IdempotencyStore = cache.NewMemoryIdempotencyStore(cfg.Idempotency.TTL)
	if cfg.Redis.Addr != "" {
		rdb, err := openRedis(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		orderCache = cache.NewRedisCache(rdb, cfg.Redis.StatusTTL)
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	}

	a := &App{cfg: cfg, log: logger}

	// rabbitmq: producer + kitchen consumer
	var publisher usecase.OrderPublisher
	if cfg.Rabbit.URL != "" {
		conn, err := openRabbit(cfg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = conn.Close() })

		pubCh, err := conn.Channel()
		if err != nil {
			return fail(fmt.Errorf("open publish channel: %w", err))
		}
		producer, err := queue.NewRabbitProducer(pubCh)
		if err != nil {
			return fail(err)
		}
		publisher = producer

		if cfg.Rabbit.Consume {
			subCh, err := conn.Channel()
			if err != nil {
				return fail(fmt.Errorf("open consume channel: %w", err))
			}
			if err := setupKitchenQueue(cfg, subCh, orderRepo, orderCache); err != nil {
				return fail(err)
			}
		}
	}

	place := usecase.NewPlaceOrder(orderRepo, orderCache, publisher)
	advance := usecase.NewAdvanceStatus(orderRepo, orderCache)

	// kafka: kitchen status updates
	if len(cfg.Kafka.Brokers) > 0 {
		grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.FromOldest)
		if err != nil {
			return fail(fmt.Errorf("kafka group: %w", err))
		}
		closers = append(closers, func() { _ = grp.Close() })

		h := kafka.NewOrderStatusChangedHandler(advance)
		consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicStatus}, h.Handle)
		a.background = append(a.background, func(ctx context.Context) {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka_consumer_stopped", "error", err)
			}
		})
	}

	sessions := session.NewManager(
		session.WithTTL(cfg.Session.TTL),
		session.WithFlowFactory(newFlowFactory(cfg, place)),
	)
	closers = append(closers, sessions.Shutdown)
	observ.RegisterSessionGauge(sessions.Len)
	if cfg.Session.SweepInterval > 0 {
		a.background = append(a.background, func(ctx context.Context) {
			sessions.Run(ctx, cfg.Session.SweepInterval)
		})
	}

	router := httpadapter.NewRouter(httpadapter.Handlers{
		Catalog:  httpadapter.NewCatalogHandler(cat),
		Cart:     httpadapter.NewCartHandler(sessions, cat),
		Checkout: httpadapter.NewCheckoutHandler(usecase.NewSubmitCheckout(idem)),
		Orders:   httpadapter.NewOrderHandler(place, advance),
		Tokens:   httpadapter.NewTokenHandler(cfg, security.Clients),
	}, sessions, middleware.NewAuthz(cfg), logging.New("http"))

	var handler http.Handler = router
	if cfg.Telemetry.Tracing {
		handler = observ.Traced(router, cfg.App.Name, "/healthz", "/metrics")
	}

	a.Sessions = sessions
	a.Server = &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	logger.Info("storefront_initialised",
		"env", cfg.App.Env,
		"products", cat.Len(),
		"mysql", cfg.MySQL.DSN != "",
		"postgres", cfg.Postgres.DSN != "",
		"redis", cfg.Redis.Addr != "",
		"rabbitmq", cfg.Rabbit.URL != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)
	return a, cleanup, nil
}

// newFlowFactory gives every session's checkout the configured delays, the
// order backend as submitter and the completion hooks.
func newFlowFactory(cfg configs.Config, place *usecase.PlaceOrder) session.FlowFactory {
	submit := checkout.SubmitterFunc(func(ctx context.Context, o domain.Order) error {
		err := place.Submit(ctx, o)
		if err != nil {
			observ.CheckoutSubmission(observ.OutcomeRejected)
		}
		return err
	})
	complete := func(o domain.Order) {
		observ.OrderCompleted(string(o.Type), o.Total)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		place.Complete(ctx, o)
	}

	return func(s *session.Session) *checkout.Flow {
		opts := []checkout.Option{
			checkout.WithDelays(cfg.Checkout.ProcessingDelay, cfg.Checkout.CompletionDelay),
			checkout.WithSubmitter(submit),
			checkout.OnComplete(complete),
			checkout.WithLogger(logging.New("checkout").With("session_id", s.ID)),
		}
		if cfg.Checkout.SubmitTimeout > 0 {
			opts = append(opts, checkout.WithSubmitTimeout(cfg.Checkout.SubmitTimeout))
		}
		return checkout.New(s.Cart(), opts...)
	}
}

func setupKitchenQueue(cfg configs.Config, ch queue.Channel, orders usecase.OrderRepo, statusCache usecase.OrderCache) error {
	h := queue.NewKitchenHandler(orders, statusCache)

	prefetch := cfg.Rabbit.Prefetch
	if prefetch <= 0 {
		prefetch = 50
	}
	router := queue.NewRouter(ch, queue.WithPrefetch(prefetch))
	router.Register(queue.CompletedQueue, queue.JSONHandler[usecase.OrderCompletedMsg]{
		HandleFunc: h.HandleCompleted,
		Validate:   queue.ValidateCompleted,
	})
	return router.Start()
}

// Run serves HTTP and the background workers until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, job := range a.background {
		wg.Add(1)
		go func(job func(context.Context)) {
			defer wg.Done()
			job(ctx)
		}(job)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("storefront_listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	timeout := a.cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http_shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	a.log.Info("storefront_stopped")
	return serveErr
}
