package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
	"DashSync/internal/handler/api"
	internalrepo "DashSync/internal/repository"
	"DashSync/internal/service/backend"
	"DashSync/internal/service/ratelimit"
	"DashSync/internal/service/session"
	"DashSync/internal/usecase"
	pkgcache "DashSync/pkg/cache"
	"DashSync/pkg/clock"
	"DashSync/pkg/config"
	xhttp "DashSync/pkg/http"
	pkgkafka "DashSync/pkg/kafka"
	"DashSync/pkg/logger"
	"DashSync/pkg/metrics"
	"DashSync/pkg/server"
)

// ProvideRegistry creates the Prometheus registry shared by every collector.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the engine metrics recorder.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) drepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(reg)
}

// ProvideKafkaProducer creates the log shipping producer. It returns nil when
// shipping is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.LogShipping.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.LogShipping.Brokers),
		pkgkafka.WithCompression("snappy"),
		pkgkafka.WithAsync(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger creates the application logger and attaches the log collector
// when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   cfg.LogShipping.Interval,
		CountThreshold: cfg.LogShipping.Threshold,
		Topic:          cfg.LogShipping.Topic,
		Source:         "dashsync",
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideBackendClient creates the REST client for the dashboard backend.
func ProvideBackendClient(cfg *config.Config) *backend.Client {
	return backend.New(cfg.Backend.BaseURL,
		xhttp.WithTimeout(cfg.Backend.Timeout),
		xhttp.WithUserAgent(cfg.Backend.UserAgent),
	)
}

func ProvideMarketAPI(c *backend.Client) drepo.MarketAPI { return c }

func ProvideAuthAPI(c *backend.Client) drepo.AuthAPI { return c }

func ProvideTokenValidator(c *backend.Client) drepo.TokenValidator { return c }

// ProvideRedisClient connects to Redis when it backs the token store.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.Session.Store != "redis" {
		return nil, func() {}, nil
	}
	rc := cfg.Session.Redis
	client, err := pkgcache.NewRedisClient(context.Background(),
		pkgcache.WithRedisAddr(rc.Addr),
		pkgcache.WithRedisPassword(rc.Password),
		pkgcache.WithRedisDB(rc.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideTokenStore picks the credential persistence backend.
func ProvideTokenStore(cfg *config.Config, client *redis.Client) (drepo.TokenStore, error) {
	switch cfg.Session.Store {
	case "file":
		return internalrepo.NewFileTokenStore(cfg.Session.FilePath), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("token store: redis client not configured")
		}
		return internalrepo.NewRedisTokenStore(client, cfg.Session.Redis.Prefix), nil
	case "memory":
		return internalrepo.NewMemoryTokenStore(), nil
	default:
		return nil, fmt.Errorf("token store: unknown kind %q", cfg.Session.Store)
	}
}

// ProvideSessionStore loads the persisted session, if any.
func ProvideSessionStore(tokens drepo.TokenStore, validator drepo.TokenValidator, l *logger.Logger) *session.Store {
	return session.New(context.Background(), tokens, validator, session.WithLogger(l))
}

// ProvideEngine creates the sync engine with cadences from config.
func ProvideEngine(
	cfg *config.Config,
	sess *session.Store,
	market drepo.MarketAPI,
	auth drepo.AuthAPI,
	m drepo.Metrics,
	l *logger.Logger,
) *usecase.SyncEngine {
	f := cfg.Feeds
	ecfg := usecase.EngineConfig{
		PriceInterval:      f.PriceInterval,
		NewsInterval:       f.NewsInterval,
		PredictionInterval: f.PredictionInterval,
		HistoryInterval:    f.HistoryInterval,
		NewsTTL:            f.NewsTTL,
		NewsLimit:          f.NewsLimit,
		HistoryRange:       drepo.NormalizeHistoryRange(f.HistoryRange),
		Catalog:            models.DefaultCatalog(),
	}
	return usecase.NewSyncEngine(sess, market, auth,
		usecase.WithEngineConfig(ecfg),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	)
}

// ProvideLimiter creates the per-client login limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(float64(cfg.Server.LoginBurst), cfg.Server.LoginRate, clock.New())
}

// ProvideDashboardHandler creates the HTTP handler for the engine.
func ProvideDashboardHandler(l *logger.Logger, engine *usecase.SyncEngine, limiter *ratelimit.Limiter) *api.DashboardHandler {
	return api.NewDashboardHandler(l, engine, limiter)
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, h *api.DashboardHandler, reg *prometheus.Registry, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowOrigins(cfg.Server.AllowOrigins),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, engine *usecase.SyncEngine, srv *xhttp.Server, l *logger.Logger) *server.App {
	return server.New(cfg, engine, srv, l)
}
