package postgres

import (
	"context"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/pkg/apperrors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const pgxmockExpectationsNotMetMsg = "pgxmock expectations were not met"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to open a stub database connection")
	t.Cleanup(pool.Close)
	return pool
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool := newMockPool(t)
	return context.Background(), NewLoanRepository(mockPool, logger), mockPool
}

var loanColumnNames = []string{
	"id", "loan_number", "member_id", "society_id", "officer_id", "product_id", "amount", "interest_rate",
	"tenure_months", "monthly_savings", "disbursement_date", "first_due_date", "last_due_date", "total_interest",
	"total_payable", "outstanding_principal", "outstanding_interest", "status", "cleared_by_official", "cleared_by",
	"cleared_at", "created_at", "updated_at",
}

var installmentColumnNames = []string{
	"id", "loan_id", "installment_number", "due_date", "opening_balance", "principal_amount",
	"interest_amount", "savings_amount", "total_installment", "closing_balance", "penalty_applied", "penalty_paid",
	"interest_paid", "principal_paid", "savings_paid", "paid_amount", "paid_date", "status", "created_at", "updated_at",
}

var fixtureTime = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

func loanRow(status loan.LoanStatus) *pgxmock.Rows {
	var clearedBy *int64
	var clearedAt *time.Time
	return pgxmock.NewRows(loanColumnNames).AddRow(
		int64(1), "LOAN20231215X", int64(3), int64(1), int64(2), int64(4), dec("12000"), dec("12"),
		12, dec("200"), fixtureTime, fixtureTime, fixtureTime, dec("1440"),
		dec("13440"), dec("12000"), dec("1440"), status, false, clearedBy,
		clearedAt, fixtureTime, fixtureTime,
	)
}

func installmentRow(rows *pgxmock.Rows, id int64, number int, status loan.InstallmentStatus) *pgxmock.Rows {
	var paidDate *time.Time
	return rows.AddRow(
		id, int64(1), number, fixtureTime, dec("12000"), dec("1000"),
		dec("120"), dec("200"), dec("1320"), dec("11000"), dec("0"), dec("0"),
		dec("0"), dec("0"), dec("0"), dec("0"), paidDate, status, fixtureTime, fixtureTime,
	)
}

func TestLoanRepository_GetLoanByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectQuery(`FROM loans WHERE id = \$1`).WithArgs(int64(1)).WillReturnRows(loanRow(loan.StatusActive))

		l, err := repo.GetLoanByID(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "LOAN20231215X", l.LoanNumber)
		assert.Equal(t, loan.StatusActive, l.Status)
		assert.True(t, l.TotalPayable.Equal(dec("13440")))
		assert.Nil(t, l.ClearedBy)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Not found", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectQuery(`FROM loans WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetLoanByID(ctx, 9)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestLoanRepository_GetScheduleByLoanID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	rows := pgxmock.NewRows(installmentColumnNames)
	installmentRow(rows, 10, 1, loan.InstallmentPaid)
	installmentRow(rows, 11, 2, loan.InstallmentPending)
	mockPool.ExpectQuery(`FROM repayment_schedule WHERE loan_id = \$1 ORDER BY installment_number ASC`).
		WithArgs(int64(1)).WillReturnRows(rows)

	schedule, err := repo.GetScheduleByLoanID(ctx, 1)

	require.NoError(t, err)
	require.Len(t, schedule, 2)
	assert.Equal(t, 1, schedule[0].InstallmentNumber)
	assert.Equal(t, loan.InstallmentPending, schedule[1].Status)
	assert.Nil(t, schedule[1].PaidDate)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_PaymentTransaction(t *testing.T) {
	t.Run("Locks loan and earliest unsettled installment", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`FROM loans WHERE id = \$1 FOR UPDATE`).WithArgs(int64(1)).WillReturnRows(loanRow(loan.StatusActive))
		mockPool.ExpectQuery(`status IN \('PENDING', 'PARTIAL', 'OVERDUE'\) ORDER BY installment_number ASC LIMIT 1 FOR UPDATE`).
			WithArgs(int64(1)).WillReturnRows(installmentRow(pgxmock.NewRows(installmentColumnNames), 11, 2, loan.InstallmentOverdue))
		mockPool.ExpectCommit()

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		l, err := repo.GetLoanForUpdate(ctx, tx, 1)
		require.NoError(t, err)
		inst, err := repo.FindEarliestUnsettledInstallmentForUpdate(ctx, tx, 1)
		require.NoError(t, err)
		require.NoError(t, repo.CommitTx(ctx, tx))

		assert.Equal(t, int64(1), l.ID)
		assert.Equal(t, int64(11), inst.ID)
		assert.Equal(t, loan.InstallmentOverdue, inst.Status)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("No unsettled installment", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`FROM repayment_schedule`).WithArgs(int64(1)).WillReturnError(pgx.ErrNoRows)
		mockPool.ExpectRollback()

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		_, err = repo.FindEarliestUnsettledInstallmentForUpdate(ctx, tx, 1)
		require.NoError(t, repo.RollbackTx(ctx, tx))

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Serialization failure keeps pg error in chain", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`FOR UPDATE`).WithArgs(int64(1)).WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		_, err = repo.GetLoanForUpdate(ctx, tx, 1)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.True(t, isRetryableError(err))
	})
}

func TestLoanRepository_UpdateInstallmentInTx(t *testing.T) {
	paidDate := fixtureTime
	inst := &loan.Installment{
		ID: 11, LoanID: 1, PenaltyPaid: dec("100"), InterestPaid: dec("120"), PrincipalPaid: dec("80"),
		SavingsPaid: decimal.Zero, PaidAmount: dec("300"), PaidDate: &paidDate, Status: loan.InstallmentPartial,
	}

	t.Run("Updates one row", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE repayment_schedule SET penalty_paid = \$1`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				loan.InstallmentPartial, int64(11), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		assert.NoError(t, repo.UpdateInstallmentInTx(ctx, tx, inst))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Zero rows is an error", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE repayment_schedule`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		assert.ErrorIs(t, repo.UpdateInstallmentInTx(ctx, tx, inst), apperrors.ErrDatabase)
	})
}

func TestLoanRepository_MarkLoanClearedInTx(t *testing.T) {
	officer := int64(2)
	l := &loan.Loan{ID: 1, Status: loan.StatusCleared, ClearedByOfficial: true, ClearedBy: &officer, ClearedAt: &fixtureTime}

	t.Run("Cleared", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE loans SET status = \$1, cleared_by_official = TRUE`).
			WithArgs(loan.StatusCleared, &officer, &fixtureTime, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		assert.NoError(t, repo.MarkLoanClearedInTx(ctx, tx, l))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Already cleared", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE loans`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		assert.ErrorIs(t, repo.MarkLoanClearedInTx(ctx, tx, l), apperrors.ErrAlreadyCleared)
	})
}

func TestLoanRepository_InsertPaymentInTx(t *testing.T) {
	installmentID := int64(11)
	p := &loan.Payment{
		LoanID: 1, InstallmentID: &installmentID, ReceiptNumber: "RCPT-1", Amount: dec("300"),
		Method: loan.MethodCash, PaymentDate: fixtureTime,
	}

	t.Run("Inserted", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(55), fixtureTime))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		saved, err := repo.InsertPaymentInTx(ctx, tx, p)

		require.NoError(t, err)
		assert.Equal(t, int64(55), saved.ID)
		assert.Equal(t, int64(0), p.ID)
	})

	t.Run("Duplicate receipt", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "payments_receipt_number_key"})

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		_, err = repo.InsertPaymentInTx(ctx, tx, p)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})
}

func TestLoanRepository_CreateLoanInTx_DuplicateNumber(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	mockPool.ExpectBegin()
	mockPool.ExpectQuery(`INSERT INTO loans`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "loans_loan_number_key"})

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	_, err = repo.CreateLoanInTx(ctx, tx, &loan.Loan{LoanNumber: "LOAN-1"}, nil)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLoanRepository_SavingsLedger(t *testing.T) {
	t.Run("Latest balance", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`FROM members WHERE id = \$1 FOR UPDATE`).WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("2550.00")))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		balance, err := repo.GetLatestSavingsBalanceInTx(ctx, tx, 3)

		require.NoError(t, err)
		assert.Equal(t, "2550.00", balance.StringFixed(2))
	})

	t.Run("Unknown member", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`FROM members`).WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		_, err = repo.GetLatestSavingsBalanceInTx(ctx, tx, 8)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Insert entry", func(t *testing.T) {
		ctx, repo, mockPool := setupLoanRepo(t)
		loanID := int64(1)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO member_savings`).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), fixtureTime))

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		saved, err := repo.InsertSavingsEntryInTx(ctx, tx, &loan.SavingsEntry{
			MemberID: 3, LoanID: &loanID, Type: loan.SavingsReturn, Amount: dec("2400"), Balance: dec("4950"),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(77), saved.ID)
		assert.Equal(t, loan.SavingsReturn, saved.Type)
	})
}

func TestLoanRepository_GetPendingPenaltyTotal(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	mockPool.ExpectQuery(`SUM\(penalty_applied - penalty_paid\)`).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(dec("150.00")))

	total, err := repo.GetPendingPenaltyTotal(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, "150.00", total.StringFixed(2))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
