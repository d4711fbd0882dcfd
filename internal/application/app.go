// Package application assembles the lead service from configuration. Both
// the HTTP server and the leadctl tool start here.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/leadbook/internal/config"
	"github.com/JonMunkholm/leadbook/internal/core"
	"github.com/JonMunkholm/leadbook/internal/database"
	"github.com/JonMunkholm/leadbook/internal/memstore"
	"github.com/JonMunkholm/leadbook/internal/ratelimit"
)

// RateKeyPrefix namespaces mutation counters in a shared Redis.
const RateKeyPrefix = "leads:mutate:"

// App is a wired service plus the resources behind it.
type App struct {
	Config  *config.Config
	Service *core.Service

	cancel  context.CancelFunc
	closers []func()
}

// New opens storage and the rate limiter described by cfg. Background work
// (the in-memory limiter sweep) runs until Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	bg, cancel := context.WithCancel(context.Background())
	a := &App{Config: cfg, cancel: cancel}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var limiter core.RateLimiter
	if cfg.Rate.Enabled {
		l, err := a.openLimiter(ctx, bg)
		if err != nil {
			a.Close()
			return nil, err
		}
		limiter = l
	}

	a.Service = core.NewService(store, core.Options{
		Limiter:              limiter,
		MaxImportRows:        cfg.Import.MaxRows,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWaitTime,
	})
	return a, nil
}

// Close stops background work and releases connections in reverse order.
func (a *App) Close() {
	a.cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (core.Store, error) {
	cfg := a.Config
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), nil
	}

	pool, err := database.Connect(ctx, cfg.Database.URL, PoolOptions(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	slog.Info("connected to database", "name", databaseName(cfg.Database.URL))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return nil, err
		}
	}
	return database.NewStore(pool), nil
}

func (a *App) openLimiter(ctx, bg context.Context) (*ratelimit.Limiter, error) {
	rc := a.Config.Rate

	var counters ratelimit.CounterStore
	switch rc.Backend {
	case config.RateBackendRedis:
		rd := a.Config.Redis
		client, err := ratelimit.NewRedisClient(ctx, rd.Addr, rd.Password, rd.DB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				slog.Warn("redis close", "error", err)
			}
		})
		counters = ratelimit.NewRedisStore(client)
	default:
		mem := ratelimit.NewMemoryStore()
		go mem.RunSweeper(bg, rc.SweepInterval)
		counters = mem
	}

	slog.Info("rate limiting enabled",
		"backend", rc.Backend,
		"limit", rc.Limit,
		"window", rc.Window.String(),
	)
	return ratelimit.New(counters, rc.Limit, rc.Window, ratelimit.WithKeyPrefix(RateKeyPrefix)), nil
}

// PoolOptions converts database settings to pool tuning.
func PoolOptions(d config.DatabaseConfig) database.PoolOptions {
	return database.PoolOptions{
		MaxConns:        int32(d.MaxConns),
		MinConns:        int32(d.MinConns),
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
	}
}

// databaseName extracts the database name from a URL DSN for logging.
func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
