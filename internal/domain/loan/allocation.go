package loan

import (
	"coop-loans/internal/pkg/apperrors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Split is how one payment was distributed over an installment's buckets.
// Excess is the part of the payment the installment could not absorb.
type Split struct {
	Penalty   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Savings   decimal.Decimal
	Excess    decimal.Decimal
}

func (s Split) Allocated() decimal.Decimal {
	return s.Penalty.Add(s.Interest).Add(s.Principal).Add(s.Savings)
}

type AllocationResult struct {
	Installment Installment
	Split       Split
}

// Allocate distributes amount over a single installment in the order penalty,
// interest, principal, savings. Each bucket takes at most what it still owes.
// Nothing is carried to the next installment; the remainder is reported as
// Split.Excess for the caller to handle.
func Allocate(inst Installment, amount decimal.Decimal, asOf time.Time) (AllocationResult, error) {
	if !round2(amount).IsPositive() {
		return AllocationResult{}, fmt.Errorf("%w: amount must be greater than zero, got %s", apperrors.ErrInvalidPaymentAmount, amount.String())
	}
	if !inst.Status.Unsettled() {
		return AllocationResult{}, fmt.Errorf("%w: installment %d is %s", apperrors.ErrNoDueInstallment, inst.InstallmentNumber, inst.Status)
	}

	remaining := round2(amount)
	take := func(component, paid decimal.Decimal) decimal.Decimal {
		due := nonNegative(component.Sub(paid))
		got := decimal.Min(remaining, due)
		remaining = remaining.Sub(got)
		return got
	}

	var split Split
	split.Penalty = take(inst.PenaltyApplied, inst.PenaltyPaid)
	split.Interest = take(inst.InterestAmount, inst.InterestPaid)
	split.Principal = take(inst.PrincipalAmount, inst.PrincipalPaid)
	split.Savings = take(inst.SavingsAmount, inst.SavingsPaid)
	split.Excess = remaining

	inst.PenaltyPaid = inst.PenaltyPaid.Add(split.Penalty)
	inst.InterestPaid = inst.InterestPaid.Add(split.Interest)
	inst.PrincipalPaid = inst.PrincipalPaid.Add(split.Principal)
	inst.SavingsPaid = inst.SavingsPaid.Add(split.Savings)
	inst.PaidAmount = inst.PaidAmount.Add(split.Allocated())

	paidDate := asOf
	inst.PaidDate = &paidDate
	if inst.PaidAmount.GreaterThanOrEqual(inst.TotalInstallment.Add(inst.PenaltyApplied)) {
		inst.Status = InstallmentPaid
	} else {
		inst.Status = InstallmentPartial
	}

	return AllocationResult{Installment: inst, Split: split}, nil
}
