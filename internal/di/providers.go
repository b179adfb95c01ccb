package di

import (
	"context"
	"fmt"
	"time"

	domrepo "StockPredict/internal/domain/repository"
	domsvc "StockPredict/internal/domain/service"
	"StockPredict/internal/handler/api"
	"StockPredict/internal/handler/ws"
	internalrepo "StockPredict/internal/repository"
	"StockPredict/internal/scheduler"
	"StockPredict/internal/service/cache"
	"StockPredict/internal/service/ratelimit"
	"StockPredict/internal/services/forest"
	"StockPredict/internal/usecase"
	pkgch "StockPredict/pkg/clickhouse"
	"StockPredict/pkg/config"
	xhttp "StockPredict/pkg/http"
	pkgkafka "StockPredict/pkg/kafka"
	applogger "StockPredict/pkg/logger"
	"StockPredict/pkg/metrics"
	"StockPredict/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideForecaster builds the forest predictor from the forest section.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	return forest.New(cfg.Forest)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideStore opens the configured backend and ensures its schema.
func ProvideStore(cfg *config.Config, l *applogger.Logger) (domrepo.Store, error) {
	var store domrepo.Store
	switch cfg.Backend.Type {
	case config.BackendMySQL:
		s, err := internalrepo.OpenMySQL(cfg.MySQLDSN(), internalrepo.MySQLOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			AutoMigrate:     cfg.Database.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("mysql store: %w", err)
		}
		s.SetLogger(l.With(applogger.String("component", "store")))
		store = s
	case config.BackendClickHouse:
		client, err := ProvideClickHouseClient(cfg, l)
		if err != nil {
			return nil, err
		}
		s := internalrepo.NewCHStore(client)
		s.SetLogger(l.With(applogger.String("component", "store")))
		store = s
	case config.BackendMemory:
		store = internalrepo.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init %s schema: %w", cfg.Backend.Type, err)
	}
	l.Info("store ready", applogger.String("backend", cfg.Backend.Type))
	return store, nil
}

// ProvideHistoryCache caches history windows in Redis when enabled, in
// process otherwise.
func ProvideHistoryCache(cfg *config.Config, l *applogger.Logger) *cache.HistoryCache {
	if !cfg.Redis.Enabled {
		return cache.NewHistoryCache(cache.NewTTLCache(), cfg.Redis.CacheTTL)
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "stockpredict:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-process cache", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
		_ = rc.Close()
		return cache.NewHistoryCache(cache.NewTTLCache(), cfg.Redis.CacheTTL)
	}
	return cache.NewHistoryCache(rc, cfg.Redis.CacheTTL)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
// It also ships aggregated error logs when a collector topic is set.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Log.CollectorTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: cfg.Log.CollectorInterval,
			Topic:        cfg.Log.CollectorTopic,
			Service:      "stockpredict",
			Publisher:    producer,
		})
	}
	return producer, nil
}

// ProvideHub creates the websocket prediction feed.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l.With(applogger.String("component", "ws_hub")))
}

// ProvideEventPublisher fans events out to the websocket hub and, when
// configured, to Kafka.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, hub *ws.Hub) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NewFanoutPublisher(hub)
	}
	return internalrepo.NewFanoutPublisher(hub, internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic))
}

// ProvidePredictionService wires the prediction use case.
func ProvidePredictionService(
	f domsvc.Forecaster,
	store domrepo.Store,
	hc *cache.HistoryCache,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(f, store, hc, pub, m, l)
}

// ProvideLimiter creates the per-client limiter for prediction endpoints.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

// ProvideHTTPHandler registers the REST API and the websocket feed.
func ProvideHTTPHandler(l *applogger.Logger, svc *usecase.PredictionService, limiter *ratelimit.Limiter, hub *ws.Hub) xhttp.Handler {
	return xhttp.Handlers{
		api.NewPredictionsEchoHandler(l, svc, limiter),
		hub,
	}
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerAutoOffsetReset(cfg.Kafka.Consumer.OffsetReset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRequestsHandler handles the prediction requests topic.
func ProvideKafkaRequestsHandler(cfg *config.Config, svc *usecase.PredictionService, m domrepo.Metrics) *usecase.KafkaRequestsHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestsTopic, svc, m)
}

// ProvideScheduler registers the batch prediction job and limiter upkeep.
func ProvideScheduler(cfg *config.Config, l *applogger.Logger, svc *usecase.PredictionService, limiter *ratelimit.Limiter) (*scheduler.Scheduler, error) {
	s := scheduler.New(l.With(applogger.String("component", "scheduler")))
	if err := s.RegisterPredictions(cfg.Schedule.PredictCron, svc, cfg.Schedule.DaysAhead, cfg.Schedule.Lookback); err != nil {
		return nil, err
	}
	if limiter.Enabled() {
		if err := s.AddJob("limiter_sweep", "0 */10 * * * *", func(context.Context) {
			if n := limiter.Sweep(10 * time.Minute); n > 0 {
				l.Debug("rate limiter buckets dropped", applogger.Int("count", n))
			}
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store domrepo.Store,
	pub domrepo.EventPublisher,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	sched *scheduler.Scheduler,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	app := server.New(cfg, l, handler, store, consumer, mh, sched)
	// publisher closes the hub and the producer
	app.OnClose("publisher", pub)
	app.OnClose("store", store)
	return app
}
