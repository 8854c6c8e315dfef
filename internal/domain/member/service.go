package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

type MemberService interface {
	GetMember(ctx context.Context, memberID int64) (*Member, error)
	GetSavingsBalance(ctx context.Context, memberID int64) (decimal.Decimal, error)
}

var _ MemberService = (*memberService)(nil)

type memberService struct {
	repo   Repository
	logger *slog.Logger
}

func NewMemberService(repo Repository, logger *slog.Logger) MemberService {
	if repo == nil {
		panic("member repository cannot be nil")
	}
	return &memberService{
		repo:   repo,
		logger: logger.With(slog.String("component", "memberService")),
	}
}

func (s *memberService) GetMember(ctx context.Context, memberID int64) (*Member, error) {
	logCtx := s.logger.With(slog.Int64("memberID", memberID))

	m, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logCtx.WarnContext(ctx, "Member not found by repository")
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error finding member", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get member %d: %w", memberID, err)
	}
	return m, nil
}

func (s *memberService) GetSavingsBalance(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.repo.GetSavingsBalance(ctx, memberID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error reading savings balance", slog.Int64("memberID", memberID), slog.Any("error", err))
		return decimal.Zero, fmt.Errorf("failed to get savings balance for member %d: %w", memberID, err)
	}
	return balance, nil
}
