package cloudflare

import (
	"log/slog"

	"github.com/dmitrymomot/certsmith/core/dnschallenge"
	"github.com/dmitrymomot/certsmith/core/issuer"
)

// NewCoordinatorFactory builds per-request challenge coordinators from the
// Cloudflare credentials each issuance request carries. The base config
// supplies everything except the credentials, which always come from the
// request.
func NewCoordinatorFactory(base Config, log *slog.Logger, opts ...dnschallenge.Option) issuer.CoordinatorFactory {
	return func(req issuer.Request) (issuer.Coordinator, error) {
		cfg := base
		cfg.Email = req.CloudflareEmail
		cfg.APIKey = req.CloudflareAPIKey

		client, err := New(cfg)
		if err != nil {
			return nil, err
		}

		coordOpts := append([]dnschallenge.Option{dnschallenge.WithLogger(log)}, opts...)
		return dnschallenge.NewCoordinator(client, coordOpts...), nil
	}
}
