package postgres

import (
	"context"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const loanColumns = `id, loan_number, member_id, society_id, officer_id, product_id, amount, interest_rate,
        tenure_months, monthly_savings, disbursement_date, first_due_date, last_due_date, total_interest,
        total_payable, outstanding_principal, outstanding_interest, status, cleared_by_official, cleared_by,
        cleared_at, created_at, updated_at`

const installmentColumns = `id, loan_id, installment_number, due_date, opening_balance, principal_amount,
        interest_amount, savings_amount, total_installment, closing_balance, penalty_applied, penalty_paid,
        interest_paid, principal_paid, savings_paid, paid_amount, paid_date, status, created_at, updated_at`

const paymentColumns = `id, loan_id, installment_id, receipt_number, amount, principal_paid, interest_paid,
        savings_paid, penalty_paid, excess_amount, payment_method, payment_date, processed_by, remarks, created_at`

func scanLoan(row rowScanner) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.LoanNumber, &l.MemberID, &l.SocietyID, &l.OfficerID, &l.ProductID, &l.Amount, &l.InterestRate,
		&l.TenureMonths, &l.MonthlySavings, &l.DisbursementDate, &l.FirstDueDate, &l.LastDueDate, &l.TotalInterest,
		&l.TotalPayable, &l.OutstandingPrincipal, &l.OutstandingInterest, &l.Status, &l.ClearedByOfficial, &l.ClearedBy,
		&l.ClearedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanInstallment(row rowScanner) (loan.Installment, error) {
	var i loan.Installment
	err := row.Scan(
		&i.ID, &i.LoanID, &i.InstallmentNumber, &i.DueDate, &i.OpeningBalance, &i.PrincipalAmount,
		&i.InterestAmount, &i.SavingsAmount, &i.TotalInstallment, &i.ClosingBalance, &i.PenaltyApplied, &i.PenaltyPaid,
		&i.InterestPaid, &i.PrincipalPaid, &i.SavingsPaid, &i.PaidAmount, &i.PaidDate, &i.Status, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

func scanPayment(row rowScanner) (loan.Payment, error) {
	var p loan.Payment
	err := row.Scan(
		&p.ID, &p.LoanID, &p.InstallmentID, &p.ReceiptNumber, &p.Amount, &p.PrincipalPaid, &p.InterestPaid,
		&p.SavingsPaid, &p.PenaltyPaid, &p.ExcessAmount, &p.Method, &p.PaymentDate, &p.ProcessedBy, &p.Remarks, &p.CreatedAt,
	)
	return p, err
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *loan.Loan, schedule []loan.Installment) (*loan.Loan, error) {
	loanSQL := `
        INSERT INTO loans (loan_number, member_id, society_id, officer_id, product_id, amount, interest_rate,
            tenure_months, monthly_savings, disbursement_date, first_due_date, last_due_date, total_interest,
            total_payable, outstanding_principal, outstanding_interest, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	created := *newLoan
	err := tx.QueryRow(ctx, loanSQL,
		newLoan.LoanNumber, newLoan.MemberID, newLoan.SocietyID, newLoan.OfficerID, newLoan.ProductID,
		newLoan.Amount, newLoan.InterestRate, newLoan.TenureMonths, newLoan.MonthlySavings,
		newLoan.DisbursementDate, newLoan.FirstDueDate, newLoan.LastDueDate, newLoan.TotalInterest,
		newLoan.TotalPayable, newLoan.OutstandingPrincipal, newLoan.OutstandingInterest, newLoan.Status,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_number", newLoan.LoanNumber, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "loan_number", created.LoanNumber)

	scheduleSQL := `
        INSERT INTO repayment_schedule (loan_id, installment_number, due_date, opening_balance, principal_amount,
            interest_amount, savings_amount, total_installment, closing_balance, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	rows := make([]loan.Installment, len(schedule))
	copy(rows, schedule)

	batch := &pgx.Batch{}
	for _, inst := range rows {
		batch.Queue(scheduleSQL, created.ID, inst.InstallmentNumber, inst.DueDate, inst.OpeningBalance,
			inst.PrincipalAmount, inst.InterestAmount, inst.SavingsAmount, inst.TotalInstallment,
			inst.ClosingBalance, inst.Status)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range rows {
		rows[i].LoanID = created.ID
		if err := results.QueryRow().Scan(&rows[i].ID, &rows[i].CreatedAt, &rows[i].UpdatedAt); err != nil {
			results.Close()
			r.logger.ErrorContext(ctx, "Failed executing schedule batch insert", "error", err, "entry_index", i, "loan_id", created.ID)
			return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed closing schedule batch results", "error", err, "loan_id", created.ID)
		return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Loan schedule created in DB", "loan_id", created.ID, "num_entries", len(rows))

	created.Schedule = rows
	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	observe("GetLoanByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	start := time.Now()
	l, err := scanLoan(tx.QueryRow(ctx, query, loanID))
	observe("GetLoanForUpdate", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found for update", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan", "loan_id", loanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return l, nil
}

func (r *LoanRepository) GetScheduleByLoanID(ctx context.Context, loanID int64) ([]loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM repayment_schedule
        WHERE loan_id = $1
        ORDER BY installment_number ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loan schedule", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return r.collectSchedule(ctx, rows, loanID)
}

func (r *LoanRepository) GetScheduleInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM repayment_schedule
        WHERE loan_id = $1
        ORDER BY installment_number ASC`

	rows, err := tx.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loan schedule in transaction", "loan_id", loanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return r.collectSchedule(ctx, rows, loanID)
}

func (r *LoanRepository) collectSchedule(ctx context.Context, rows pgx.Rows, loanID int64) ([]loan.Installment, error) {
	defer rows.Close()

	schedule := make([]loan.Installment, 0)
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan schedule row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		schedule = append(schedule, inst)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating schedule rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return schedule, nil
}

func (r *LoanRepository) FindEarliestUnsettledInstallmentForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Installment, error) {
	query := `SELECT ` + installmentColumns + `
        FROM repayment_schedule
        WHERE loan_id = $1 AND status IN ('PENDING', 'PARTIAL', 'OVERDUE')
        ORDER BY installment_number ASC
        LIMIT 1
        FOR UPDATE`

	inst, err := scanInstallment(tx.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "No unsettled installment found for update", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find/lock earliest unsettled installment", "loan_id", loanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &inst, nil
}

func (r *LoanRepository) UpdateInstallmentInTx(ctx context.Context, tx pgx.Tx, inst *loan.Installment) error {
	sql := `
        UPDATE repayment_schedule
        SET penalty_paid = $1, interest_paid = $2, principal_paid = $3, savings_paid = $4,
            paid_amount = $5, paid_date = $6, status = $7, updated_at = NOW()
        WHERE id = $8 AND loan_id = $9`

	cmdTag, err := tx.Exec(ctx, sql,
		inst.PenaltyPaid, inst.InterestPaid, inst.PrincipalPaid, inst.SavingsPaid,
		inst.PaidAmount, inst.PaidDate, inst.Status, inst.ID, inst.LoanID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update installment", "installment_id", inst.ID, "loan_id", inst.LoanID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Installment update affected zero rows", "installment_id", inst.ID, "loan_id", inst.LoanID)
		return fmt.Errorf("%w: installment update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *LoanRepository) UpdateLoanBalancesInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	sql := `
        UPDATE loans
        SET outstanding_principal = $1, outstanding_interest = $2, status = $3, updated_at = NOW()
        WHERE id = $4`

	cmdTag, err := tx.Exec(ctx, sql, l.OutstandingPrincipal, l.OutstandingInterest, l.Status, l.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan balances", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan balance update affected zero rows", "loan_id", l.ID)
		return fmt.Errorf("%w: loan balance update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *LoanRepository) MarkLoanClearedInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	sql := `
        UPDATE loans
        SET status = $1, cleared_by_official = TRUE, cleared_by = $2, cleared_at = $3, updated_at = NOW()
        WHERE id = $4 AND cleared_by_official = FALSE`

	cmdTag, err := tx.Exec(ctx, sql, l.Status, l.ClearedBy, l.ClearedAt, l.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark loan cleared", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.WarnContext(ctx, "Loan was already cleared", "loan_id", l.ID)
		return fmt.Errorf("%w: loan %d", apperrors.ErrAlreadyCleared, l.ID)
	}
	r.logger.InfoContext(ctx, "Loan marked cleared in DB", "loan_id", l.ID)
	return nil
}

func (r *LoanRepository) InsertStatusChangeInTx(ctx context.Context, tx pgx.Tx, change loan.StatusChange) error {
	sql := `
        INSERT INTO loan_status_history (loan_id, old_status, new_status, changed_by, reason, changed_at)
        VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, sql,
		change.LoanID, string(change.OldStatus), string(change.NewStatus), change.ChangedBy, change.Reason, change.ChangedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan status history", "loan_id", change.LoanID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *loan.Payment) (*loan.Payment, error) {
	sql := `
        INSERT INTO payments (loan_id, installment_id, receipt_number, amount, principal_paid, interest_paid,
            savings_paid, penalty_paid, excess_amount, payment_method, payment_date, processed_by, remarks, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
        RETURNING id, created_at`

	saved := *p
	err := tx.QueryRow(ctx, sql,
		p.LoanID, p.InstallmentID, p.ReceiptNumber, p.Amount, p.PrincipalPaid, p.InterestPaid,
		p.SavingsPaid, p.PenaltyPaid, p.ExcessAmount, p.Method, p.PaymentDate, p.ProcessedBy, p.Remarks,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert payment", "loan_id", p.LoanID, "receipt_number", p.ReceiptNumber, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &saved, nil
}

func (r *LoanRepository) MarkPenaltiesPaidInTx(ctx context.Context, tx pgx.Tx, installmentID int64) error {
	sql := `
        UPDATE penalties
        SET status = 'PAID', updated_at = NOW()
        WHERE installment_id = $1 AND status = 'PENDING'`

	cmdTag, err := tx.Exec(ctx, sql, installmentID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark penalties paid", "installment_id", installmentID, "error", err)
		return translateDBError(err, r.logger)
	}
	r.logger.DebugContext(ctx, "Penalties marked paid", "installment_id", installmentID, "rows", cmdTag.RowsAffected())
	return nil
}

// GetLatestSavingsBalanceInTx locks the member row so concurrent ledger
// writes for the same member serialise on it.
func (r *LoanRepository) GetLatestSavingsBalanceInTx(ctx context.Context, tx pgx.Tx, memberID int64) (decimal.Decimal, error) {
	query := `
        WITH locked AS (SELECT id FROM members WHERE id = $1 FOR UPDATE)
        SELECT COALESCE(
            (SELECT balance FROM member_savings WHERE member_id = $1 ORDER BY id DESC LIMIT 1),
            0)
        FROM locked`

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, query, memberID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Member not found while reading savings balance", "member_id", memberID)
			return decimal.Zero, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to read savings balance", "member_id", memberID, "error", err)
		return decimal.Zero, translateDBError(err, r.logger)
	}
	return balance, nil
}

func (r *LoanRepository) InsertSavingsEntryInTx(ctx context.Context, tx pgx.Tx, e *loan.SavingsEntry) (*loan.SavingsEntry, error) {
	sql := `
        INSERT INTO member_savings (member_id, loan_id, transaction_type, amount, balance, description, transaction_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, created_at`

	saved := *e
	err := tx.QueryRow(ctx, sql,
		e.MemberID, e.LoanID, e.Type, e.Amount, e.Balance, e.Description, e.TransactionDate,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert savings entry", "member_id", e.MemberID, "type", e.Type, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &saved, nil
}

func (r *LoanRepository) ListPayments(ctx context.Context, loanID int64) ([]loan.Payment, error) {
	query := `SELECT ` + paymentColumns + `
        FROM payments
        WHERE loan_id = $1
        ORDER BY payment_date ASC, id ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]loan.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating payment rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *LoanRepository) GetPendingPenaltyTotal(ctx context.Context, loanID int64) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(SUM(penalty_applied - penalty_paid), 0)
        FROM repayment_schedule
        WHERE loan_id = $1`

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, loanID).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum pending penalties", "loan_id", loanID, "error", err)
		return decimal.Zero, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if total.IsNegative() {
		r.logger.WarnContext(ctx, "Calculated pending penalty is negative, returning 0", "loan_id", loanID, "calculated_value", total.String())
		return decimal.Zero, nil
	}
	return total, nil
}
