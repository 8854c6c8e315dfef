package postgres

import (
	"coop-loans/internal/domain/member"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRepository_FindByID(t *testing.T) {
	columns := []string{"id", "society_id", "member_number", "name", "active", "created_at", "updated_at"}

	t.Run("Found", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewMemberRepository(mockPool, logger)
		mockPool.ExpectQuery(`FROM members WHERE id = \$1`).WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(3), int64(1), "M-0003", "Lakshmi R", true, fixtureTime, fixtureTime))

		m, err := repo.FindByID(t.Context(), 3)

		require.NoError(t, err)
		assert.Equal(t, "M-0003", m.MemberNumber)
		assert.True(t, m.Active)
		assert.Equal(t, int64(1), m.SocietyID)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Not found", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewMemberRepository(mockPool, logger)
		mockPool.ExpectQuery(`FROM members`).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(t.Context(), 99)

		assert.ErrorIs(t, err, member.ErrNotFound)
	})

	t.Run("Database failure", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewMemberRepository(mockPool, logger)
		mockPool.ExpectQuery(`FROM members`).WithArgs(int64(3)).WillReturnError(errors.New("connection refused"))

		_, err := repo.FindByID(t.Context(), 3)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}

func TestMemberRepository_GetSavingsBalance(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewMemberRepository(mockPool, logger)
	mockPool.ExpectQuery(`FROM member_savings WHERE member_id = \$1 ORDER BY id DESC LIMIT 1`).WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("1050.00")))

	balance, err := repo.GetSavingsBalance(t.Context(), 3)

	require.NoError(t, err)
	assert.Equal(t, "1050.00", balance.StringFixed(2))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestNewMemberRepository_NilPool(t *testing.T) {
	assert.Panics(t, func() { NewMemberRepository(nil, logger) })
}
