package certsmith

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/certsmith/core/config"
	"github.com/dmitrymomot/certsmith/core/issuer"
	"github.com/dmitrymomot/certsmith/core/notification"
	"github.com/dmitrymomot/certsmith/core/service"
	"github.com/dmitrymomot/certsmith/integration/database/pg"
	"github.com/dmitrymomot/certsmith/integration/dns/cloudflare"
	"github.com/dmitrymomot/certsmith/integration/email/postmark"
)

// Config aggregates the environment configuration of the default
// composition. Postmark settings are only loaded when notifications are
// enabled.
type Config struct {
	Issuer issuer.Config
	DB     pg.Config

	// NotificationsEnabled wires the Postmark outcome notifier. Off by
	// default so local setups work without email credentials.
	NotificationsEnabled bool `env:"NOTIFICATIONS_ENABLED" envDefault:"false"`
}

// App is the composed certificate issuance application.
type App struct {
	Service *service.Service
	Store   *pg.Store

	pool interface{ Close() }
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// New loads configuration from the environment, connects the database,
// applies migrations, and wires the issuance workflow. The returned App
// owns the database pool; call Close when done.
func New(ctx context.Context, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pg.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	store := pg.NewStore(pool)

	coordinators := cloudflare.NewCoordinatorFactory(cloudflare.Config{}, log)
	iss, err := issuer.New(cfg.Issuer, coordinators, issuer.WithLogger(log))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build issuer: %w", err)
	}

	opts := []service.Option{service.WithLogger(log)}
	if cfg.NotificationsEnabled {
		var pmCfg postmark.Config
		if err := config.Load(&pmCfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("load postmark configuration: %w", err)
		}
		client, err := postmark.New(pmCfg)
		if err != nil {
			pool.Close()
			return nil, errors.Join(errors.New("build postmark notifier"), err)
		}
		opts = append(opts, service.WithNotifier(
			notification.NewRetryNotifier(client, notification.WithRetryLogger(log)),
		))
	}

	svc, err := service.New(iss, store, opts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build service: %w", err)
	}

	return &App{Service: svc, Store: store, pool: pool}, nil
}
