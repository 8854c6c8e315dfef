package loan

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository is the persistence collaborator for loans, schedules, payments
// and the savings ledger. Methods taking a pgx.Tx run inside the caller's
// transaction.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	CreateLoanInTx(ctx context.Context, tx pgx.Tx, l *Loan, schedule []Installment) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error)

	GetScheduleByLoanID(ctx context.Context, loanID int64) ([]Installment, error)

	GetScheduleInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]Installment, error)

	FindEarliestUnsettledInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Installment, error)

	UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, inst *Installment) error

	UpdateLoanBalancesInTx(ctx context.Context, tx pgx.Tx, l *Loan) error

	MarkLoanClearedInTx(ctx context.Context, tx pgx.Tx, l *Loan) error

	InsertStatusChangeInTx(ctx context.Context, tx pgx.Tx, change StatusChange) error

	InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) (*Payment, error)

	MarkPenaltiesPaidInTx(ctx context.Context, tx pgx.Tx, installmentID int64) error

	GetLatestSavingsBalanceInTx(ctx context.Context, tx pgx.Tx, memberID int64) (decimal.Decimal, error)

	InsertSavingsEntryInTx(ctx context.Context, tx pgx.Tx, e *SavingsEntry) (*SavingsEntry, error)

	ListPayments(ctx context.Context, loanID int64) ([]Payment, error)

	GetPendingPenaltyTotal(ctx context.Context, loanID int64) (decimal.Decimal, error)
}

// Retrier re-runs a whole transactional unit when the database reports a
// transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// NumberGenerator assigns externally visible loan and receipt numbers.
type NumberGenerator interface {
	LoanNumber(at time.Time) string
	ReceiptNumber(at time.Time) string
}
