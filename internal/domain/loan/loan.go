package loan

import (
	"coop-loans/internal/pkg/apperrors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusPending LoanStatus = "PENDING"
	StatusActive  LoanStatus = "ACTIVE"
	StatusClosed  LoanStatus = "CLOSED"
	StatusCleared LoanStatus = "CLEARED"
)

type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentPartial   InstallmentStatus = "PARTIAL"
	InstallmentPaid      InstallmentStatus = "PAID"
	InstallmentOverdue   InstallmentStatus = "OVERDUE"
	InstallmentDefaulted InstallmentStatus = "DEFAULTED"
)

// Unsettled reports whether a payment may still be allocated to the installment.
func (s InstallmentStatus) Unsettled() bool {
	return s == InstallmentPending || s == InstallmentOverdue || s == InstallmentPartial
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodUPI          PaymentMethod = "UPI"
	MethodNEFT         PaymentMethod = "NEFT"
	MethodRTGS         PaymentMethod = "RTGS"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCheque, MethodBankTransfer, MethodUPI, MethodNEFT, MethodRTGS:
		return true
	}
	return false
}

type SavingsEntryType string

const (
	SavingsDeposit        SavingsEntryType = "DEPOSIT"
	SavingsWithdrawal     SavingsEntryType = "WITHDRAWAL"
	SavingsInterestCredit SavingsEntryType = "INTEREST_CREDIT"
	SavingsReturn         SavingsEntryType = "RETURN"
)

type Loan struct {
	ID                   int64
	LoanNumber           string
	MemberID             int64
	SocietyID            int64
	OfficerID            int64
	ProductID            int64
	Amount               decimal.Decimal
	InterestRate         decimal.Decimal
	TenureMonths         int
	MonthlySavings       decimal.Decimal
	DisbursementDate     time.Time
	FirstDueDate         time.Time
	LastDueDate          time.Time
	TotalInterest        decimal.Decimal
	TotalPayable         decimal.Decimal
	OutstandingPrincipal decimal.Decimal
	OutstandingInterest  decimal.Decimal
	Status               LoanStatus
	ClearedByOfficial    bool
	ClearedBy            *int64
	ClearedAt            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Schedule             []Installment
}

type Installment struct {
	ID                int64
	LoanID            int64
	InstallmentNumber int
	DueDate           time.Time
	OpeningBalance    decimal.Decimal
	PrincipalAmount   decimal.Decimal
	InterestAmount    decimal.Decimal
	SavingsAmount     decimal.Decimal
	TotalInstallment  decimal.Decimal
	ClosingBalance    decimal.Decimal
	PenaltyApplied    decimal.Decimal
	PenaltyPaid       decimal.Decimal
	InterestPaid      decimal.Decimal
	PrincipalPaid     decimal.Decimal
	SavingsPaid       decimal.Decimal
	PaidAmount        decimal.Decimal
	PaidDate          *time.Time
	Status            InstallmentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AmountDue is what remains to settle the installment, penalty included.
func (i Installment) AmountDue() decimal.Decimal {
	due := i.TotalInstallment.Add(i.PenaltyApplied).Sub(i.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

type Payment struct {
	ID            int64
	LoanID        int64
	InstallmentID *int64
	ReceiptNumber string
	Amount        decimal.Decimal
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
	SavingsPaid   decimal.Decimal
	PenaltyPaid   decimal.Decimal
	ExcessAmount  decimal.Decimal
	Method        PaymentMethod
	PaymentDate   time.Time
	ProcessedBy   *int64
	Remarks       string
	CreatedAt     time.Time
}

type SavingsEntry struct {
	ID              int64
	MemberID        int64
	LoanID          *int64
	Type            SavingsEntryType
	Amount          decimal.Decimal
	Balance         decimal.Decimal
	Description     string
	TransactionDate time.Time
	CreatedAt       time.Time
}

type StatusChange struct {
	LoanID    int64
	OldStatus LoanStatus
	NewStatus LoanStatus
	ChangedBy *int64
	Reason    string
	ChangedAt time.Time
}

// NewLoan builds an unsaved PENDING loan whose totals are derived from schedule.
func NewLoan(p CreateLoanParams, schedule []Installment) *Loan {
	totalInterest := decimal.Zero
	for _, inst := range schedule {
		totalInterest = totalInterest.Add(inst.InterestAmount)
	}
	amount := round2(p.Amount)

	l := &Loan{
		LoanNumber:           p.LoanNumber,
		MemberID:             p.MemberID,
		SocietyID:            p.SocietyID,
		OfficerID:            p.OfficerID,
		ProductID:            p.ProductID,
		Amount:               amount,
		InterestRate:         p.InterestRate,
		TenureMonths:         p.TenureMonths,
		MonthlySavings:       round2(*p.MonthlySavings),
		DisbursementDate:     p.DisbursementDate,
		FirstDueDate:         p.FirstDueDate,
		TotalInterest:        totalInterest,
		TotalPayable:         amount.Add(totalInterest),
		OutstandingPrincipal: amount,
		OutstandingInterest:  totalInterest,
		Status:               StatusPending,
		Schedule:             schedule,
	}
	if len(schedule) > 0 {
		l.LastDueDate = schedule[len(schedule)-1].DueDate
	}
	return l
}

func (l *Loan) Outstanding() decimal.Decimal {
	return l.OutstandingPrincipal.Add(l.OutstandingInterest)
}

// CheckPayable rejects cleared loans only. A CLOSED loan can still owe the
// savings component of its last installment; once every row is settled the
// installment lookup reports ErrNoDueInstallment instead.
func (l *Loan) CheckPayable() error {
	if l.Status == StatusCleared {
		return fmt.Errorf("%w: loan %d is %s", apperrors.ErrLoanNotPayable, l.ID, l.Status)
	}
	return nil
}

// ApplyAllocation decrements the outstanding balances by the allocated split,
// never below zero, and moves the loan status forward.
func (l *Loan) ApplyAllocation(split Split) (previous, next LoanStatus) {
	previous = l.Status

	l.OutstandingPrincipal = nonNegative(l.OutstandingPrincipal.Sub(split.Principal))
	l.OutstandingInterest = nonNegative(l.OutstandingInterest.Sub(split.Interest))

	switch {
	case !l.OutstandingPrincipal.IsPositive() && !l.OutstandingInterest.IsPositive():
		l.Status = StatusClosed
	case previous == StatusPending:
		l.Status = StatusActive
	}
	return previous, l.Status
}

// Clear marks the loan as administratively cleared.
func (l *Loan) Clear(officerID int64, at time.Time) error {
	if l.ClearedByOfficial || l.Status == StatusCleared {
		return fmt.Errorf("%w: loan %d", apperrors.ErrAlreadyCleared, l.ID)
	}
	l.ClearedByOfficial = true
	l.ClearedBy = &officerID
	l.ClearedAt = &at
	l.Status = StatusCleared
	return nil
}

// SavingsReturnAmount sums the savings component across the whole schedule.
func SavingsReturnAmount(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.SavingsAmount)
	}
	return total
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
