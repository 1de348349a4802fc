package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/ports"
	"github.com/coderz/catalog-client/internal/core/service"
	"github.com/coderz/catalog-client/internal/infrastructure/db/memory"
	"github.com/coderz/catalog-client/internal/infrastructure/db/mongo"
	"github.com/coderz/catalog-client/internal/infrastructure/db/redis"
	"github.com/coderz/catalog-client/internal/infrastructure/db/sqlite"
	"github.com/coderz/catalog-client/internal/infrastructure/endpoint"
	"github.com/coderz/catalog-client/internal/infrastructure/export"
	"github.com/coderz/catalog-client/internal/infrastructure/remote"
	"github.com/coderz/catalog-client/internal/infrastructure/transport"
	"github.com/coderz/catalog-client/internal/pkg/config"
	"github.com/coderz/catalog-client/pkg/logger"
)

const probeTimeout = 5 * time.Second

// app holds the wired services for one CLI invocation.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	tokens   *service.TokenStore
	products ports.ProductService
	auth     ports.AuthService
	editor   ports.CellEditor
	proxy    *service.ProxyService
	closers  []func(context.Context) error
}

// newApp wires storage, transport, gateways and services from cfg.
func newApp(ctx context.Context, cfg *config.Config, locale string) (*app, error) {
	a := &app{cfg: cfg, log: logger.Get()}

	kv, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := endpoint.New(endpoint.Config{
		BaseURL: cfg.API.BaseURL,
		Paths: map[endpoint.Key]string{
			endpoint.KeyLogin:    cfg.API.LoginPath,
			endpoint.KeyRegister: cfg.API.RegisterPath,
			endpoint.KeyProducts: cfg.API.ProductsPath,
		},
		Hostname: cfg.API.Hostname,
		Proxy: endpoint.ProxyStrategy{
			Templates: cfg.Proxy.URLs,
			Index:     cfg.Proxy.Index,
			Enabled:   cfg.Proxy.Enabled,
		},
	})
	if err != nil {
		return nil, err
	}

	casing, err := remote.ParseCasing(cfg.API.FieldCasing)
	if err != nil {
		return nil, err
	}

	a.tokens = service.NewTokenStore(kv)
	opts := []transport.Option{
		transport.WithTimeout(cfg.HTTP.Timeout),
		transport.WithRetry(cfg.HTTP.MaxRetries, cfg.HTTP.RetryDelay),
		transport.WithBackoff(transport.Backoff(strings.ToLower(cfg.HTTP.RetryBackoff))),
		transport.WithLogger(logger.Component("transport")),
	}
	if cfg.HTTP.CircuitBreaker {
		opts = append(opts, transport.WithCircuitBreaker(cfg.HTTP.CircuitBreakerThreshold, cfg.HTTP.CircuitBreakerCoolDown))
	}
	exec := transport.New(a.tokens, opts...)
	prober := transport.New(nil,
		transport.WithTimeout(probeTimeout),
		transport.WithRetry(0, 0),
		transport.WithLogger(logger.Component("probe")),
	)

	exporter, err := a.openExporter(ctx)
	if err != nil {
		return nil, err
	}

	msg := service.NewMessages(locale)
	a.products = service.NewProductService(
		remote.NewProductGateway(exec, resolver, casing), exporter, msg, logger.Component("products"))
	a.auth = service.NewAuthService(
		remote.NewAuthGateway(exec.WithCredentialCapture(a.tokens), resolver), a.tokens, msg, logger.Component("auth"))
	a.editor = service.NewCellEditor(a.products, msg, logger.Component("editor"))
	a.proxy = service.NewProxyService(resolver, service.NewProxyPreferences(kv), prober, msg, logger.Component("proxy"))

	if err := a.proxy.Restore(ctx); err != nil {
		a.log.Warn().Err(err).Msg("could not restore proxy preference")
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (ports.KeyValueStore, error) {
	switch a.cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return redis.NewStore(client, a.cfg.Redis.Prefix), nil
	default:
		store, err := sqlite.Open(ctx, a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return store, nil
	}
}

func (a *app) openExporter(ctx context.Context) (ports.Exporter, error) {
	if a.cfg.Mongo.URI == "" {
		return export.NewFileExporter(a.cfg.Output.ExportDir), nil
	}
	archive, err := mongo.Open(ctx, mongo.Config{
		URI:        a.cfg.Mongo.URI,
		Database:   a.cfg.Mongo.Database,
		Collection: a.cfg.Mongo.Collection,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, archive.Close)
	return archive.Exporter, nil
}

// Close releases storage and archive connections.
func (a *app) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
