package postgres

import (
	"context"
	"coop-loans/internal/domain/member"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type MemberRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ member.Repository = (*MemberRepository)(nil)

func NewMemberRepository(db DBPool, logger *slog.Logger) *MemberRepository {
	if db == nil {
		panic("DBPool cannot be nil for MemberRepository")
	}
	return &MemberRepository{db: db, logger: logger.With("component", "MemberRepository")}
}

func (r *MemberRepository) FindByID(ctx context.Context, memberID int64) (*member.Member, error) {
	query := `
        SELECT id, society_id, member_number, name, active, created_at, updated_at
        FROM members
        WHERE id = $1`

	var m member.Member
	start := time.Now()
	err := r.db.QueryRow(ctx, query, memberID).Scan(
		&m.ID, &m.SocietyID, &m.MemberNumber, &m.Name, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	observe("FindMemberByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Member not found", "member_id", memberID)
			return nil, member.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find member by ID", "member_id", memberID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &m, nil
}

// GetSavingsBalance reads the running balance of the member's most recent
// ledger entry; a member with no entries has a zero balance.
func (r *MemberRepository) GetSavingsBalance(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(
            (SELECT balance FROM member_savings WHERE member_id = $1 ORDER BY id DESC LIMIT 1),
            0)`

	var balance decimal.Decimal
	start := time.Now()
	err := r.db.QueryRow(ctx, query, memberID).Scan(&balance)
	observe("GetSavingsBalance", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read savings balance", "member_id", memberID, "error", err)
		return decimal.Zero, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return balance, nil
}
