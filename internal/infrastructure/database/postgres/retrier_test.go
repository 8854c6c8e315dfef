package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func fastRetrier() *Retrier {
	r := NewRetrier(logger)
	r.initialInterval = time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	return r
}

func TestRetrier_Retry(t *testing.T) {
	ctx := context.Background()
	serialization := fmt.Errorf("lock loan: %w", &pgconn.PgError{Code: pgErrSerializationFailure})

	t.Run("succeeds first time", func(t *testing.T) {
		calls := 0
		err := fastRetrier().Retry(ctx, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries serialization failures until success", func(t *testing.T) {
		calls := 0
		err := fastRetrier().Retry(ctx, func() error {
			calls++
			if calls < 3 {
				return serialization
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := fastRetrier().Retry(ctx, func() error {
			calls++
			return &pgconn.PgError{Code: pgErrDeadlock}
		})
		assert.Error(t, err)
		assert.Equal(t, 4, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := fastRetrier().Retry(ctx, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&pgconn.PgError{Code: pgErrDeadlock}))
	assert.True(t, isRetryableError(&pgconn.PgError{Code: pgErrSerializationFailure}))
	assert.False(t, isRetryableError(&pgconn.PgError{Code: pgErrUniqueViolation}))
	assert.False(t, isRetryableError(errors.New("plain")))
}
