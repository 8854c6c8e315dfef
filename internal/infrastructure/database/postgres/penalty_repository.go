package postgres

import (
	"context"
	"coop-loans/internal/domain/penalty"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PenaltyRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ penalty.Repository = (*PenaltyRepository)(nil)

func NewPenaltyRepository(db DBPool, logger *slog.Logger) *PenaltyRepository {
	if db == nil {
		panic("DBPool cannot be nil for PenaltyRepository")
	}
	return &PenaltyRepository{db: db, logger: logger.With("component", "PenaltyRepository")}
}

const penaltyColumns = `id, loan_id, installment_id, penalty_type, amount, reason, status, applied_date,
        waived_by, waived_date, COALESCE(waived_reason, ''), created_at, updated_at`

func scanPenalty(row rowScanner) (penalty.Penalty, error) {
	var p penalty.Penalty
	err := row.Scan(
		&p.ID, &p.LoanID, &p.InstallmentID, &p.Type, &p.Amount, &p.Reason, &p.Status, &p.AppliedDate,
		&p.WaivedBy, &p.WaivedDate, &p.WaivedReason, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *PenaltyRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *PenaltyRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *PenaltyRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

// MarkOverdueInstallments only touches installments of loans that still
// accept payments.
func (r *PenaltyRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	sql := `
        UPDATE repayment_schedule rs
        SET status = 'OVERDUE', updated_at = NOW()
        FROM loans l
        WHERE rs.loan_id = l.id
          AND l.status IN ('PENDING', 'ACTIVE')
          AND rs.status IN ('PENDING', 'PARTIAL')
          AND rs.due_date < $1`

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, sql, asOf)
	observe("MarkOverdueInstallments", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark overdue installments", "as_of", asOf.Format(time.DateOnly), "error", err)
		return 0, translateDBError(err, r.logger)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PenaltyRepository) FindInstallmentsNeedingLatePenalty(ctx context.Context, asOf time.Time) ([]penalty.OverdueInstallment, error) {
	query := `
        SELECT rs.id, rs.loan_id, rs.installment_number, rs.due_date
        FROM repayment_schedule rs
        JOIN loans l ON l.id = rs.loan_id
        WHERE rs.status = 'OVERDUE'
          AND rs.due_date < $1
          AND l.status IN ('PENDING', 'ACTIVE')
          AND NOT EXISTS (
              SELECT 1 FROM penalties p
              WHERE p.installment_id = rs.id AND p.penalty_type = 'LATE_PAYMENT'
          )
        ORDER BY rs.due_date ASC, rs.id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, asOf)
	observe("FindInstallmentsNeedingLatePenalty", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query overdue installments", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	overdue := make([]penalty.OverdueInstallment, 0)
	for rows.Next() {
		var o penalty.OverdueInstallment
		if err := rows.Scan(&o.InstallmentID, &o.LoanID, &o.InstallmentNumber, &o.DueDate); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan overdue installment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		overdue = append(overdue, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating overdue installment rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return overdue, nil
}

func (r *PenaltyRepository) ApplyLatePenaltyInTx(ctx context.Context, tx pgx.Tx, inst penalty.OverdueInstallment, amount decimal.Decimal, asOf time.Time) (*penalty.Penalty, bool, error) {
	insertSQL := `
        INSERT INTO penalties (loan_id, installment_id, penalty_type, amount, reason, status, applied_date, created_at, updated_at)
        VALUES ($1, $2, 'LATE_PAYMENT', $3, $4, 'PENDING', $5, NOW(), NOW())
        ON CONFLICT (installment_id) WHERE penalty_type = 'LATE_PAYMENT' DO NOTHING
        RETURNING ` + penaltyColumns

	reason := fmt.Sprintf("Late payment on installment %d due %s", inst.InstallmentNumber, inst.DueDate.Format(time.DateOnly))
	p, err := scanPenalty(tx.QueryRow(ctx, insertSQL, inst.LoanID, inst.InstallmentID, amount, reason, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "Late penalty already present", "installment_id", inst.InstallmentID)
			return nil, false, nil
		}
		r.logger.ErrorContext(ctx, "Failed to insert late penalty", "installment_id", inst.InstallmentID, "error", err)
		return nil, false, translateDBError(err, r.logger)
	}

	updateSQL := `
        UPDATE repayment_schedule
        SET penalty_applied = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'OVERDUE'`

	cmdTag, err := tx.Exec(ctx, updateSQL, amount, inst.InstallmentID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to raise installment penalty", "installment_id", inst.InstallmentID, "error", err)
		return nil, false, translateDBError(err, r.logger)
	}
	// Settled between the sweep query and this transaction; the caller rolls
	// back so the inserted penalty row goes with it.
	if cmdTag.RowsAffected() != 1 {
		r.logger.InfoContext(ctx, "Installment no longer overdue, skipping penalty", "installment_id", inst.InstallmentID)
		return nil, false, nil
	}
	return &p, true, nil
}

func (r *PenaltyRepository) GetPenaltyForUpdate(ctx context.Context, tx pgx.Tx, penaltyID int64) (*penalty.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE id = $1 FOR UPDATE`

	p, err := scanPenalty(tx.QueryRow(ctx, query, penaltyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Penalty not found for update", "penalty_id", penaltyID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock penalty", "penalty_id", penaltyID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &p, nil
}

// WaivePenaltyInTx marks the penalty waived and removes its amount from the
// installment. An installment whose remaining dues are already covered
// becomes PAID.
func (r *PenaltyRepository) WaivePenaltyInTx(ctx context.Context, tx pgx.Tx, p *penalty.Penalty) error {
	waiveSQL := `
        UPDATE penalties
        SET status = $1, waived_by = $2, waived_date = $3, waived_reason = $4, updated_at = NOW()
        WHERE id = $5 AND status = 'PENDING'`

	cmdTag, err := tx.Exec(ctx, waiveSQL, p.Status, p.WaivedBy, p.WaivedDate, p.WaivedReason, p.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to waive penalty", "penalty_id", p.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: penalty %d", apperrors.ErrPenaltyNotPending, p.ID)
	}

	installmentSQL := `
        UPDATE repayment_schedule
        SET penalty_applied = GREATEST(penalty_applied - $1, penalty_paid),
            status = CASE
                WHEN status <> 'PAID'
                 AND paid_amount >= total_installment + GREATEST(penalty_applied - $1, penalty_paid)
                THEN 'PAID'
                ELSE status
            END,
            updated_at = NOW()
        WHERE id = $2`

	if _, err := tx.Exec(ctx, installmentSQL, p.Amount, p.InstallmentID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to reduce installment penalty", "installment_id", p.InstallmentID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *PenaltyRepository) ListByLoan(ctx context.Context, loanID int64) ([]penalty.Penalty, error) {
	query := `SELECT ` + penaltyColumns + `
        FROM penalties
        WHERE loan_id = $1
        ORDER BY applied_date ASC, id ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query penalties", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	penalties := make([]penalty.Penalty, 0)
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan penalty row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		penalties = append(penalties, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating penalty rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return penalties, nil
}
