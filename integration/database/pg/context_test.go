package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certsmith/integration/database/pg"
)

type fakeTx struct{ pgx.Tx }

func TestTxContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		tx := fakeTx{}
		ctx := pg.WithTx(context.Background(), tx)

		got, ok := pg.TxFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, tx, got)
	})

	t.Run("nil tx leaves context unchanged", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, pg.WithTx(ctx, nil))
	})

	t.Run("absent tx", func(t *testing.T) {
		_, ok := pg.TxFromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestErrorClassification(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
		assert.True(t, pg.IsNotFoundError(errors.Join(errors.New("wrapped"), pgx.ErrNoRows)))
		assert.False(t, pg.IsNotFoundError(errors.New("other")))
	})

	t.Run("duplicate key", func(t *testing.T) {
		assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
		assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	})

	t.Run("foreign key violation", func(t *testing.T) {
		assert.True(t, pg.IsForeignKeyViolationError(&pgconn.PgError{Code: "23503"}))
		assert.False(t, pg.IsForeignKeyViolationError(pgx.ErrNoRows))
	})
}
