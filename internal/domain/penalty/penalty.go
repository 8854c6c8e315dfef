package penalty

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeLatePayment   Type = "LATE_PAYMENT"
	TypeProcessingFee Type = "PROCESSING_FEE"
	TypeOther         Type = "OTHER"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusWaived  Status = "WAIVED"
)

type Penalty struct {
	ID            int64
	LoanID        int64
	InstallmentID int64
	Type          Type
	Amount        decimal.Decimal
	Reason        string
	Status        Status
	AppliedDate   time.Time
	WaivedBy      *int64
	WaivedDate    *time.Time
	WaivedReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OverdueInstallment is an installment past its due date that has not yet
// been charged a late-payment penalty.
type OverdueInstallment struct {
	InstallmentID     int64
	LoanID            int64
	InstallmentNumber int
	DueDate           time.Time
}

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// MarkOverdueInstallments flags PENDING and PARTIAL installments due
	// before asOf as OVERDUE and returns how many rows changed.
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)

	FindInstallmentsNeedingLatePenalty(ctx context.Context, asOf time.Time) ([]OverdueInstallment, error)

	// ApplyLatePenaltyInTx records the penalty and raises the installment's
	// penalty_applied. It reports false when the installment already carries
	// a late-payment penalty.
	ApplyLatePenaltyInTx(ctx context.Context, tx pgx.Tx, inst OverdueInstallment, amount decimal.Decimal, asOf time.Time) (*Penalty, bool, error)

	GetPenaltyForUpdate(ctx context.Context, tx pgx.Tx, penaltyID int64) (*Penalty, error)

	WaivePenaltyInTx(ctx context.Context, tx pgx.Tx, p *Penalty) error

	ListByLoan(ctx context.Context, loanID int64) ([]Penalty, error)
}
