// Package app wires storage, Redis and the domain services into one value
// shared by the MCP and HTTP transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dshills/shopmall-mcp/internal/account"
	"github.com/dshills/shopmall-mcp/internal/cart"
	"github.com/dshills/shopmall-mcp/internal/catalog"
	"github.com/dshills/shopmall-mcp/internal/config"
	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/messaging"
	"github.com/dshills/shopmall-mcp/internal/ordering"
	"github.com/dshills/shopmall-mcp/internal/reporting"
	"github.com/dshills/shopmall-mcp/internal/storage"
)

// redisPingTimeout bounds the startup connectivity check
const redisPingTimeout = 3 * time.Second

// App holds every service of a running shop
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Storage storage.Storage
	Redis   *redis.Client

	Accounts  *account.Service
	Catalog   *catalog.Service
	Orders    *ordering.Service
	Cart      *cart.Service
	Reports   *reporting.Service
	Messaging *messaging.Service
}

// New builds the services over an open store and Redis client. The App
// takes ownership of both and releases them in Close.
func New(cfg *config.Config, store storage.Storage, rdb *redis.Client, logger *slog.Logger) *App {
	logger = logging.OrDiscard(logger)

	catalogSvc := catalog.New(store, logger.With("component", "catalog"))
	orders := ordering.New(store, logger.With("component", "ordering"))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Redis:   rdb,
		Accounts: account.New(store, account.Codes{
			Staff:     cfg.Auth.StaffCode,
			Executive: cfg.Auth.ExecutiveCode,
		}, logger.With("component", "account")),
		Catalog: catalogSvc,
		Orders:  orders,
		Cart: cart.New(rdb, catalogSvc, orders, cart.Config{
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.CartTTL,
		}, logger.With("component", "cart")),
		Reports:   reporting.New(store, cfg.Reports.CacheSize, logger.With("component", "reporting")),
		Messaging: messaging.New(store, logger.With("component", "messaging")),
	}
}

// Open creates the database directory if needed, opens SQLite, connects to
// Redis and builds the services.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)

	dbPath := cfg.Storage.Path
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	// The catalog, orders and reports work without Redis; only cart calls fail
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, cart operations will fail", "addr", opts.Addr, "error", err)
	}

	logger.Info("storage opened", "path", dbPath, "driver", storage.DriverName, "build_mode", storage.BuildMode)
	return New(cfg, store, rdb, logger), nil
}

// Close releases the Redis client and the database
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if err := a.Storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	return errors.Join(errs...)
}
