package loan

import (
	"coop-loans/internal/pkg/apperrors"
	"time"

	"github.com/shopspring/decimal"
)

var twelveHundred = decimal.NewFromInt(1200)

type ScheduleInput struct {
	Amount         decimal.Decimal
	AnnualRate     decimal.Decimal
	TenureMonths   int
	MonthlySavings decimal.Decimal
	FirstDueDate   time.Time
}

func (in ScheduleInput) Validate() error {
	if in.TenureMonths < 1 {
		return apperrors.NewScheduleInputError("tenureMonths", "must be at least 1")
	}
	if !round2(in.Amount).IsPositive() {
		return apperrors.NewScheduleInputError("amount", "must be greater than zero")
	}
	if in.AnnualRate.IsNegative() {
		return apperrors.NewScheduleInputError("interestRate", "must not be negative")
	}
	if in.MonthlySavings.IsNegative() {
		return apperrors.NewScheduleInputError("monthlySavings", "must not be negative")
	}
	if in.FirstDueDate.IsZero() {
		return apperrors.NewScheduleInputError("firstDueDate", "is required")
	}
	return nil
}

// GenerateSchedule builds the flat-rate repayment schedule. Interest is charged
// on the original amount for every installment and the last installment takes
// whatever principal remains, so the principal column sums to the amount.
func GenerateSchedule(in ScheduleInput) ([]Installment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	amount := round2(in.Amount)
	tenure := decimal.NewFromInt(int64(in.TenureMonths))
	interest := round2(amount.Mul(in.AnnualRate).Div(twelveHundred))
	monthlyPrincipal := round2(amount.Div(tenure))
	savings := round2(in.MonthlySavings)

	schedule := make([]Installment, 0, in.TenureMonths)
	remaining := amount
	for n := 1; n <= in.TenureMonths; n++ {
		principal := decimal.Min(monthlyPrincipal, remaining)
		if n == in.TenureMonths {
			principal = remaining
		}
		closing := remaining.Sub(principal)

		schedule = append(schedule, Installment{
			InstallmentNumber: n,
			DueDate:           addMonths(in.FirstDueDate, n-1),
			OpeningBalance:    remaining,
			PrincipalAmount:   principal,
			InterestAmount:    interest,
			SavingsAmount:     savings,
			TotalInstallment:  principal.Add(interest).Add(savings),
			ClosingBalance:    closing,
			PenaltyApplied:    decimal.Zero,
			PenaltyPaid:       decimal.Zero,
			InterestPaid:      decimal.Zero,
			PrincipalPaid:     decimal.Zero,
			SavingsPaid:       decimal.Zero,
			PaidAmount:        decimal.Zero,
			Status:            InstallmentPending,
		})
		remaining = closing
	}
	return schedule, nil
}

// addMonths moves t forward by n calendar months, clamping the day to the end
// of the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
