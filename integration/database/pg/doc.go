// Package pg provides PostgreSQL connectivity and the certificate record
// store.
//
// Connect builds a pgx connection pool with retry logic so a service start
// does not race its database; Migrate applies the embedded goose migrations
// through pgx's database/sql adapter; Healthcheck returns a probe suitable
// for readiness endpoints.
//
// Store implements record.Store on top of the pool. Repositories
// participate in an ambient transaction when one is attached to the
// context:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx) // safe after commit
//
//	ctx = pg.WithTx(ctx, tx)
//	if err := store.Save(ctx, rec); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
//
// Error classification helpers (IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError) translate driver errors into decisions
// without leaking pgconn details upward.
package pg
