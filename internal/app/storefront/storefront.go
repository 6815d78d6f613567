// Package storefront собирает HTTP-сервис витрины: хранилище состояния
// устройств, кеш каталога, брокер событий, сервисы и маршруты.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/fashion-storefront/internal/cache"
	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/config"
	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/metrics"
	"github.com/magabrotheeeer/fashion-storefront/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/fashion-storefront/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/fashion-storefront/internal/services/catalog"
	newsletterservice "github.com/magabrotheeeer/fashion-storefront/internal/services/newsletter"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage/memory"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage/postgresql"
	storageredis "github.com/magabrotheeeer/fashion-storefront/internal/storage/redis"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	kv, rdb, err := a.openStorage(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	catalogCache := a.openCache(ctx, cfg, rdb)

	publisher, err := a.openPublisher(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := catalog.NewClient(cfg.BaseURL, cfg.Catalog.Timeout)
	catalogService := catalogservice.New(client, catalogCache, logger, cfg.ProductsTTL, cfg.CategoriesTTL)
	authService := authservice.NewAuthService(client, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), cfg.Auth, kv, logger)
	newsletterService := newsletterservice.New(kv, newsletterservice.Options{
		Publisher: publisher,
		Results:   m.Newsletter,
		Log:       logger,
		Delay:     cfg.Newsletter.Delay,
	})
	registry := device.NewRegistry(kv, device.Options{
		Publisher:     publisher,
		CartOps:       m.Cart,
		FavoritesOps:  m.Favorites,
		CheckoutDelay: cfg.Checkout.Delay,
		IdleTTL:       cfg.DeviceIdleTTL,
		MaxDevices:    cfg.MaxDevices,
		Log:           logger,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Dependencies{
		Devices:    registry,
		Limiter:    middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst, cfg.RateLimit.IdleTTL),
		Metrics:    m,
		Gatherer:   reg,
		Catalog:    catalogService,
		Auth:       authService,
		Newsletter: newsletterService,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// openStorage подключает бэкенд состояния устройств. Для драйвера redis
// возвращает и клиент, чтобы кеш каталога использовал то же соединение.
func (a *App) openStorage(ctx context.Context, cfg *config.Config) (storage.KV, *goredis.Client, error) {
	const op = "storefront.openStorage"
	switch cfg.Driver {
	case config.StorageRedis:
		rdb, err := storageredis.Connect(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		kv := storageredis.New(rdb)
		a.closers = append(a.closers, kv.Close)
		return kv, rdb, nil
	case config.StoragePostgres:
		kv, err := postgresql.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, kv.Close)
		return kv, nil, nil
	default:
		a.logger.Warn("using in-memory storage, state is lost on restart")
		return memory.New(), nil, nil
	}
}

// openCache возвращает кеш каталога. Недоступный Redis не мешает старту:
// каталог работает без кеша.
func (a *App) openCache(ctx context.Context, cfg *config.Config, rdb *goredis.Client) catalogservice.Cache {
	if rdb == nil {
		if cfg.AddressRedis == "" {
			return cache.Nop{}
		}
		var err error
		rdb, err = storageredis.Connect(ctx, cfg.RedisConnection)
		if err != nil {
			a.logger.Warn("catalog cache disabled", sl.Err(err))
			return cache.Nop{}
		}
		a.closers = append(a.closers, rdb.Close)
	}
	return cache.New(rdb, "catalog:")
}

// openPublisher подключает RabbitMQ. Без URL события отбрасываются.
func (a *App) openPublisher(cfg *config.Config) (events.Publisher, error) {
	const op = "storefront.openPublisher"
	if cfg.RabbitMQ.URL == "" {
		a.logger.Info("rabbitmq url is empty, events are dropped")
		return events.Nop{}, nil
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.NewsletterQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, ch.Close)
	return rabbitmq.NewPublisher(ch, cfg.Exchange), nil
}

// close освобождает ресурсы в порядке, обратном открытию.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}
