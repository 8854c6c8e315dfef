package penalty

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

type TxMock struct {
	pgx.Tx
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) FindInstallmentsNeedingLatePenalty(ctx context.Context, asOf time.Time) ([]OverdueInstallment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OverdueInstallment), args.Error(1)
}

func (m *MockRepository) ApplyLatePenaltyInTx(ctx context.Context, tx pgx.Tx, inst OverdueInstallment, amount decimal.Decimal, asOf time.Time) (*Penalty, bool, error) {
	args := m.Called(ctx, tx, inst, amount, asOf)

	var r0 *Penalty
	if args.Get(0) != nil {
		r0 = args.Get(0).(*Penalty)
	}
	return r0, args.Bool(1), args.Error(2)
}

func (m *MockRepository) GetPenaltyForUpdate(ctx context.Context, tx pgx.Tx, penaltyID int64) (*Penalty, error) {
	args := m.Called(ctx, tx, penaltyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Penalty), args.Error(1)
}

func (m *MockRepository) WaivePenaltyInTx(ctx context.Context, tx pgx.Tx, p *Penalty) error {
	return m.Called(ctx, tx, p).Error(0)
}

func (m *MockRepository) ListByLoan(ctx context.Context, loanID int64) ([]Penalty, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Penalty), args.Error(1)
}
