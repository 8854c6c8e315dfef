package loan

import (
	"coop-loans/internal/pkg/apperrors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceParams() CreateLoanParams {
	savings := dec("200")
	return CreateLoanParams{
		LoanNumber:       "LOAN20231215ABC",
		MemberID:         3,
		SocietyID:        1,
		OfficerID:        2,
		ProductID:        4,
		Amount:           dec("12000"),
		InterestRate:     dec("12"),
		TenureMonths:     12,
		MonthlySavings:   &savings,
		DisbursementDate: date(2023, time.December, 15),
		FirstDueDate:     date(2024, time.January, 1),
	}
}

func TestNewLoan_DerivesTotalsFromSchedule(t *testing.T) {
	p := referenceParams()
	schedule, err := GenerateSchedule(p.ScheduleInput())
	require.NoError(t, err)

	l := NewLoan(p, schedule)

	assert.Equal(t, StatusPending, l.Status)
	assertMoney(t, "1440.00", l.TotalInterest)
	assertMoney(t, "13440.00", l.TotalPayable)
	assertMoney(t, "12000.00", l.OutstandingPrincipal)
	assertMoney(t, "1440.00", l.OutstandingInterest)
	assert.Equal(t, date(2024, time.December, 1), l.LastDueDate)
	assert.Len(t, l.Schedule, 12)
}

func TestLoan_ApplyAllocation(t *testing.T) {
	t.Run("pending loan becomes active", func(t *testing.T) {
		l := &Loan{Status: StatusPending, OutstandingPrincipal: dec("1000"), OutstandingInterest: dec("120")}

		prev, next := l.ApplyAllocation(Split{Interest: dec("120"), Principal: dec("200")})

		assert.Equal(t, StatusPending, prev)
		assert.Equal(t, StatusActive, next)
		assertMoney(t, "800.00", l.OutstandingPrincipal)
		assertMoney(t, "0.00", l.OutstandingInterest)
	})

	t.Run("both balances at zero closes the loan", func(t *testing.T) {
		l := &Loan{Status: StatusActive, OutstandingPrincipal: dec("500"), OutstandingInterest: dec("200")}

		prev, next := l.ApplyAllocation(Split{Penalty: dec("100"), Interest: dec("200"), Principal: dec("500"), Savings: dec("50")})

		assert.Equal(t, StatusActive, prev)
		assert.Equal(t, StatusClosed, next)
	})

	t.Run("balances are clamped at zero", func(t *testing.T) {
		l := &Loan{Status: StatusActive, OutstandingPrincipal: dec("100"), OutstandingInterest: dec("10")}

		_, next := l.ApplyAllocation(Split{Interest: dec("25"), Principal: dec("150")})

		assert.Equal(t, StatusClosed, next)
		assert.True(t, l.OutstandingPrincipal.IsZero())
		assert.True(t, l.OutstandingInterest.IsZero())
	})

	t.Run("active loan stays active", func(t *testing.T) {
		l := &Loan{Status: StatusActive, OutstandingPrincipal: dec("1000"), OutstandingInterest: dec("100")}

		prev, next := l.ApplyAllocation(Split{Interest: dec("10")})

		assert.Equal(t, prev, next)
	})
}

func TestLoan_Clear(t *testing.T) {
	at := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	l := &Loan{ID: 5, Status: StatusActive}

	require.NoError(t, l.Clear(9, at))
	assert.Equal(t, StatusCleared, l.Status)
	assert.True(t, l.ClearedByOfficial)
	assert.Equal(t, int64(9), *l.ClearedBy)
	assert.Equal(t, at, *l.ClearedAt)

	err := l.Clear(10, at.Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCleared)
	assert.Equal(t, int64(9), *l.ClearedBy)
	assert.Equal(t, at, *l.ClearedAt)
}

func TestLoan_CheckPayable(t *testing.T) {
	for _, status := range []LoanStatus{StatusPending, StatusActive, StatusClosed} {
		assert.NoError(t, (&Loan{Status: status}).CheckPayable())
	}
	assert.ErrorIs(t, (&Loan{Status: StatusCleared}).CheckPayable(), apperrors.ErrLoanNotPayable)
}

func TestLoan_ClosedWithSavingsStillDue(t *testing.T) {
	schedule, err := GenerateSchedule(ScheduleInput{
		Amount:         dec("1000"),
		AnnualRate:     dec("12"),
		TenureMonths:   1,
		MonthlySavings: dec("200"),
		FirstDueDate:   date(2024, time.January, 31),
	})
	require.NoError(t, err)
	savings := dec("200")
	l := NewLoan(CreateLoanParams{Amount: dec("1000"), InterestRate: dec("12"), TenureMonths: 1, MonthlySavings: &savings}, schedule)

	res, err := Allocate(schedule[0], dec("1010"), date(2024, time.January, 31))
	require.NoError(t, err)
	_, next := l.ApplyAllocation(res.Split)

	assert.Equal(t, StatusClosed, next)
	assert.Equal(t, InstallmentPartial, res.Installment.Status)
	assertMoney(t, "200.00", res.Installment.AmountDue())
	assert.NoError(t, l.CheckPayable())

	final, err := Allocate(res.Installment, dec("200"), date(2024, time.February, 5))
	require.NoError(t, err)
	assert.Equal(t, InstallmentPaid, final.Installment.Status)
	assertMoney(t, "200.00", final.Split.Savings)
}

func TestSavingsReturnAmount(t *testing.T) {
	schedule := []Installment{{SavingsAmount: dec("200")}, {SavingsAmount: dec("200")}, {SavingsAmount: dec("150.50")}}

	assertMoney(t, "550.50", SavingsReturnAmount(schedule))
	assert.True(t, SavingsReturnAmount(nil).Equal(decimal.Zero))
}

func TestActor(t *testing.T) {
	assert.True(t, Actor{Role: RoleAdmin}.CanClear())
	assert.True(t, Actor{Role: RoleOfficial}.CanClear())
	assert.False(t, Actor{Role: RoleStaff}.CanClear())
	assert.False(t, Actor{}.CanClear())

	assert.Nil(t, Actor{}.ID())
	assert.Equal(t, int64(4), *Actor{OfficerID: 4}.ID())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, MethodUPI.Valid())
	assert.False(t, PaymentMethod("BITCOIN").Valid())
}
