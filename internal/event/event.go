package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLoanCreated       Type = "loan.created"
	TypePaymentAllocated  Type = "loan.payment.allocated"
	TypeLoanStatusChanged Type = "loan.status.changed"
	TypeLoanCleared       Type = "loan.cleared"
	TypePenaltyApplied    Type = "penalty.applied"
	TypePenaltyWaived     Type = "penalty.waived"
)

// Event is the envelope published after a committed mutation. The type doubles
// as the routing key.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	LoanID     int64     `json:"loanId"`
	ActorID    *int64    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func New(t Type, loanID int64, actorID *int64, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		LoanID:     loanID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type LoanCreatedPayload struct {
	LoanNumber   string `json:"loanNumber"`
	MemberID     int64  `json:"memberId"`
	Amount       string `json:"amount"`
	TenureMonths int    `json:"tenureMonths"`
	TotalPayable string `json:"totalPayable"`
	FirstDueDate string `json:"firstDueDate"`
	LastDueDate  string `json:"lastDueDate"`
}

type PaymentAllocatedPayload struct {
	ReceiptNumber        string `json:"receiptNumber"`
	InstallmentNumber    int    `json:"installmentNumber"`
	Amount               string `json:"amount"`
	PenaltyPaid          string `json:"penaltyPaid"`
	InterestPaid         string `json:"interestPaid"`
	PrincipalPaid        string `json:"principalPaid"`
	SavingsPaid          string `json:"savingsPaid"`
	ExcessAmount         string `json:"excessAmount"`
	InstallmentStatus    string `json:"installmentStatus"`
	OutstandingPrincipal string `json:"outstandingPrincipal"`
	OutstandingInterest  string `json:"outstandingInterest"`
}

type LoanStatusChangedPayload struct {
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Reason    string `json:"reason,omitempty"`
}

type LoanClearedPayload struct {
	MemberID      int64     `json:"memberId"`
	ClearedBy     int64     `json:"clearedBy"`
	ClearedAt     time.Time `json:"clearedAt"`
	SavingsReturn string    `json:"savingsReturn"`
}

type PenaltyPayload struct {
	PenaltyID     int64  `json:"penaltyId"`
	InstallmentID int64  `json:"installmentId"`
	PenaltyType   string `json:"penaltyType"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}
