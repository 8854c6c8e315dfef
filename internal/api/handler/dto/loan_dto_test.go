package dto

import (
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLoanRequest_ToParams(t *testing.T) {
	savings := "150.50"
	req := CreateLoanRequest{
		MemberID: 3, SocietyID: 1, OfficerID: 2, ProductID: 4,
		Amount: "12000", InterestRate: "12", TenureMonths: 12,
		MonthlySavings: &savings, DisbursementDate: "2024-01-10", FirstDueDate: "2024-02-10",
	}

	p, err := req.ToParams()

	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(12000)))
	require.NotNil(t, p.MonthlySavings)
	assert.Equal(t, "150.5", p.MonthlySavings.String())
	assert.Equal(t, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), p.FirstDueDate)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), p.DisbursementDate)
}

func TestCreateLoanRequest_ToParams_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateLoanRequest
		field string
	}{
		{"missing amount", CreateLoanRequest{InterestRate: "12", FirstDueDate: "2024-02-10"}, "amount"},
		{"bad rate", CreateLoanRequest{Amount: "100", InterestRate: "twelve", FirstDueDate: "2024-02-10"}, "interestRate"},
		{"bad due date", CreateLoanRequest{Amount: "100", InterestRate: "12", FirstDueDate: "10/02/2024"}, "firstDueDate"},
		{"bad disbursement", CreateLoanRequest{Amount: "100", InterestRate: "12", FirstDueDate: "2024-02-10", DisbursementDate: "soon"}, "disbursementDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToParams()

			require.ErrorIs(t, err, apperrors.ErrValidation)
			var ve *apperrors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMakePaymentRequest_ToParams(t *testing.T) {
	officer := int64(2)
	req := MakePaymentRequest{Amount: "1320.00", Method: " upi ", ReceiptNumber: " R-1 ", PaymentDate: "2024-02-12"}

	p, err := req.ToParams(7, &officer)

	require.NoError(t, err)
	assert.Equal(t, int64(7), p.LoanID)
	assert.Equal(t, loan.MethodUPI, p.Method)
	assert.Equal(t, "R-1", p.ReceiptNumber)
	assert.Equal(t, &officer, p.ProcessedBy)
	assert.Equal(t, time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC), p.AsOf)

	_, err = (&MakePaymentRequest{Amount: "lots"}).ToParams(7, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewPaymentResultResponse(t *testing.T) {
	installmentID := int64(11)
	loanID := int64(1)
	res := &loan.PaymentResult{
		Loan: &loan.Loan{Status: loan.StatusActive, OutstandingPrincipal: decimal.RequireFromString("11000"), OutstandingInterest: decimal.RequireFromString("1320")},
		Installment: &loan.Installment{
			ID: 11, InstallmentNumber: 1, TotalInstallment: decimal.RequireFromString("1320"),
			PaidAmount: decimal.RequireFromString("1320"), Status: loan.InstallmentPaid,
		},
		Payment: &loan.Payment{
			ID: 9, LoanID: 1, InstallmentID: &installmentID, ReceiptNumber: "R-1", Amount: decimal.RequireFromString("1400"),
			ExcessAmount: decimal.RequireFromString("80"), Method: loan.MethodCash,
		},
		Split: loan.Split{
			Penalty: decimal.Zero, Interest: decimal.RequireFromString("120"), Principal: decimal.RequireFromString("1000"),
			Savings: decimal.RequireFromString("200"), Excess: decimal.RequireFromString("80"),
		},
		PreviousStatus: loan.StatusPending,
		SavingsCredit:  &loan.SavingsEntry{ID: 3, MemberID: 3, LoanID: &loanID, Type: loan.SavingsDeposit, Amount: decimal.RequireFromString("80"), Balance: decimal.RequireFromString("80")},
	}

	resp := NewPaymentResultResponse(res)

	assert.Equal(t, "1400.00", resp.Payment.Amount)
	assert.Equal(t, "80.00", resp.Split.Excess)
	assert.Equal(t, "PENDING", resp.PreviousStatus)
	assert.Equal(t, "ACTIVE", resp.LoanStatus)
	assert.Equal(t, "0.00", resp.Installment.AmountDue)
	require.NotNil(t, resp.SavingsCredit)
	assert.Equal(t, "DEPOSIT", resp.SavingsCredit.TransactionType)
}

func TestNewLoanResponse_Schedule(t *testing.T) {
	paid := time.Date(2024, time.February, 9, 0, 0, 0, 0, time.UTC)
	l := &loan.Loan{
		ID: 1, Amount: decimal.RequireFromString("12000"), InterestRate: decimal.RequireFromString("12"),
		Status: loan.StatusActive,
		Schedule: []loan.Installment{
			{InstallmentNumber: 1, DueDate: paid, PaidDate: &paid, Status: loan.InstallmentPaid},
			{InstallmentNumber: 2, Status: loan.InstallmentPending},
		},
	}

	withSchedule := NewLoanResponse(l, true)
	withoutSchedule := NewLoanResponse(l, false)

	assert.Equal(t, "12000.00", withSchedule.Amount)
	assert.Equal(t, "12", withSchedule.InterestRate)
	require.Len(t, withSchedule.Schedule, 2)
	require.NotNil(t, withSchedule.Schedule[0].PaidDate)
	assert.Equal(t, "2024-02-09", *withSchedule.Schedule[0].PaidDate)
	assert.Nil(t, withSchedule.Schedule[1].PaidDate)
	assert.Nil(t, withoutSchedule.Schedule)
}
