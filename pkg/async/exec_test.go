package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certsmith/pkg/async"
)

func TestExecReturnsFunctionError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("send failed")
	future := async.Exec(context.Background(), "admin@example.com", func(ctx context.Context, recipient string) error {
		if recipient == "" {
			return errors.New("missing recipient")
		}
		return wantErr
	})

	assert.ErrorIs(t, future.Await(), wantErr)
	assert.True(t, future.IsComplete())
}

func TestExecSuccess(t *testing.T) {
	t.Parallel()

	future := async.Exec(context.Background(), 2, func(ctx context.Context, n int) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	require.NoError(t, future.Await())
}

func TestExecPreCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	future := async.Exec(ctx, struct{}{}, func(context.Context, struct{}) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, future.Await(), context.Canceled)
	assert.False(t, called, "function must not run when context is pre-cancelled")
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	future := async.Exec(context.Background(), struct{}{}, func(context.Context, struct{}) error {
		<-block
		return nil
	})

	assert.ErrorIs(t, future.AwaitWithTimeout(20*time.Millisecond), async.ErrTimeout)

	close(block)
	require.NoError(t, future.Await())
}
