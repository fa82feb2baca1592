// Package certsmith issues TLS certificates through the ACME DNS-01 flow
// with Cloudflare-managed DNS, wildcard domains included.
//
// The root package is a composition helper: New wires the default stack
// (PostgreSQL record store, Cloudflare challenge coordination, optional
// Postmark outcome notifications) from environment configuration. Every
// component is also usable on its own.
//
// # Package Organization
//
//   - core/issuer: the ACME issuance workflow, from request validation to
//     the signed certificate chain
//   - core/dnschallenge: DNS-01 challenge record provisioning and
//     guaranteed teardown
//   - core/record: the issuance record entity and its store contract
//   - core/notification: outcome emails with retrying delivery
//   - core/service: the application workflow tying the above together
//   - core/config: environment-driven configuration loading
//   - integration/dns/cloudflare: Cloudflare v4 API client and the
//     per-request coordinator factory
//   - integration/database/pg: pgx connection management, goose
//     migrations, and the PostgreSQL record store
//   - integration/email/postmark: Postmark-backed notification delivery
//   - pkg/logger: slog attribute helpers
//   - pkg/async: fire-and-forget execution with awaitable futures
//
// # Quick Start
//
//	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	app, err := certsmith.New(ctx, log)
//	if err != nil {
//		log.Error("startup failed", "error", err)
//		os.Exit(1)
//	}
//	defer app.Close()
//
//	rec, err := app.Service.IssueCertificate(ctx, service.IssueParams{
//		Domain:           "*.example.com",
//		ContactEmail:     "admin@example.com",
//		CloudflareEmail:  "ops@example.com",
//		CloudflareAPIKey: apiKey,
//	})
package certsmith
