package loan

import (
	"context"
	"errors"
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
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, l *Loan, schedule []Installment) (*Loan, error) {
	args := m.Called(ctx, tx, l, schedule)

	var r0 *Loan
	if rf, ok := args.Get(0).(func(context.Context, pgx.Tx, *Loan, []Installment) *Loan); ok {
		r0 = rf(ctx, tx, l, schedule)
	} else if args.Get(0) != nil {
		r0 = args.Get(0).(*Loan)
	}
	return r0, args.Error(1)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Loan), args.Error(1)
}

func (m *MockRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Loan), args.Error(1)
}

func (m *MockRepository) GetScheduleByLoanID(ctx context.Context, loanID int64) ([]Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Installment), args.Error(1)
}

func (m *MockRepository) GetScheduleInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]Installment, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Installment), args.Error(1)
}

func (m *MockRepository) FindEarliestUnsettledInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Installment, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Installment), args.Error(1)
}

func (m *MockRepository) UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, inst *Installment) error {
	args := m.Called(ctx, tx, inst)
	return args.Error(0)
}

func (m *MockRepository) UpdateLoanBalancesInTx(ctx context.Context, tx pgx.Tx, l *Loan) error {
	args := m.Called(ctx, tx, l)
	return args.Error(0)
}

func (m *MockRepository) MarkLoanClearedInTx(ctx context.Context, tx pgx.Tx, l *Loan) error {
	args := m.Called(ctx, tx, l)
	return args.Error(0)
}

func (m *MockRepository) InsertStatusChangeInTx(ctx context.Context, tx pgx.Tx, change StatusChange) error {
	args := m.Called(ctx, tx, change)
	return args.Error(0)
}

func (m *MockRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) (*Payment, error) {
	args := m.Called(ctx, tx, p)

	var r0 *Payment
	if rf, ok := args.Get(0).(func(context.Context, pgx.Tx, *Payment) *Payment); ok {
		r0 = rf(ctx, tx, p)
	} else if args.Get(0) != nil {
		r0 = args.Get(0).(*Payment)
	}
	return r0, args.Error(1)
}

func (m *MockRepository) MarkPenaltiesPaidInTx(ctx context.Context, tx pgx.Tx, installmentID int64) error {
	args := m.Called(ctx, tx, installmentID)
	return args.Error(0)
}

func (m *MockRepository) GetLatestSavingsBalanceInTx(ctx context.Context, tx pgx.Tx, memberID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, memberID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) InsertSavingsEntryInTx(ctx context.Context, tx pgx.Tx, e *SavingsEntry) (*SavingsEntry, error) {
	args := m.Called(ctx, tx, e)

	var r0 *SavingsEntry
	if rf, ok := args.Get(0).(func(context.Context, pgx.Tx, *SavingsEntry) *SavingsEntry); ok {
		r0 = rf(ctx, tx, e)
	} else if args.Get(0) != nil {
		r0 = args.Get(0).(*SavingsEntry)
	}
	return r0, args.Error(1)
}

func (m *MockRepository) ListPayments(ctx context.Context, loanID int64) ([]Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Payment), args.Error(1)
}

func (m *MockRepository) GetPendingPenaltyTotal(ctx context.Context, loanID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type fixedNumbers struct{}

func (fixedNumbers) LoanNumber(time.Time) string    { return "LOAN-TEST-0001" }
func (fixedNumbers) ReceiptNumber(time.Time) string { return "RCPT-TEST-0001" }

// countingRetrier re-runs the operation once when it fails with retryErr.
type countingRetrier struct {
	retryErr error
	calls    int
}

func (r *countingRetrier) Retry(_ context.Context, operation func() error) error {
	r.calls++
	err := operation()
	if err != nil && r.retryErr != nil && errors.Is(err, r.retryErr) {
		r.calls++
		return operation()
	}
	return err
}
