package penalty

import (
	"context"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/event"
	"coop-loans/internal/infrastructure/monitoring"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// SweepResult summarises one late-penalty run.
type SweepResult struct {
	Candidates int
	Applied    int
	Skipped    int
	Failed     int
}

type Service interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)

	ApplyLatePenalties(ctx context.Context, asOf time.Time) (SweepResult, error)

	WaivePenalty(ctx context.Context, penaltyID int64, actor loan.Actor, reason string) (*Penalty, error)

	ListByLoan(ctx context.Context, loanID int64) ([]Penalty, error)
}

type service struct {
	repo      Repository
	publisher event.Publisher
	amount    decimal.Decimal
	workers   int
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, pub event.Publisher, lateAmount decimal.Decimal, workers int, logger *slog.Logger) Service {
	if repo == nil {
		panic("penalty repository cannot be nil")
	}
	if pub == nil {
		pub = event.NewNopPublisher(logger)
	}
	if workers < 1 {
		workers = 1
	}
	return &service{
		repo:      repo,
		publisher: pub,
		amount:    lateAmount,
		workers:   workers,
		logger:    logger.With("component", "PenaltyService"),
		now:       time.Now,
	}
}

func (s *service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.repo.MarkOverdueInstallments(ctx, asOf)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark overdue installments", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to mark overdue installments: %w", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Marked installments overdue", slog.Int64("count", n), slog.String("asOf", asOf.Format(time.DateOnly)))
	return n, nil
}

func (s *service) ApplyLatePenalties(ctx context.Context, asOf time.Time) (SweepResult, error) {
	candidates, err := s.repo.FindInstallmentsNeedingLatePenalty(ctx, asOf)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to find installments needing a late penalty", slog.Any("error", err))
		return SweepResult{}, fmt.Errorf("%w: failed to find overdue installments: %w", apperrors.ErrInternalServer, err)
	}

	result := SweepResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	var applied, skipped, failed atomic.Int32
	jobs := make(chan OverdueInstallment)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				p, ok, err := s.applyOne(ctx, inst, asOf)
				switch {
				case err != nil:
					failed.Add(1)
					s.logger.ErrorContext(ctx, "Failed to apply late penalty",
						slog.Int64("installmentID", inst.InstallmentID),
						slog.Int64("loanID", inst.LoanID),
						slog.Any("error", err),
					)
				case !ok:
					skipped.Add(1)
				default:
					applied.Add(1)
					s.publish(ctx, event.New(event.TypePenaltyApplied, p.LoanID, nil, payloadFor(p)))
				}
			}
		}()
	}

	for _, inst := range candidates {
		if ctx.Err() != nil {
			break
		}
		jobs <- inst
	}
	close(jobs)
	wg.Wait()

	result.Applied = int(applied.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())
	monitoring.RecordPenaltiesApplied(result.Applied)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("late penalty sweep interrupted: %w", err)
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("late penalty sweep completed with %d errors", result.Failed)
	}
	return result, nil
}

func (s *service) applyOne(ctx context.Context, inst OverdueInstallment, asOf time.Time) (p *Penalty, applied bool, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil || !applied {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	p, applied, err = s.repo.ApplyLatePenaltyInTx(ctx, tx, inst, s.amount, asOf)
	if err != nil || !applied {
		return nil, applied, err
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *service) WaivePenalty(ctx context.Context, penaltyID int64, actor loan.Actor, reason string) (_ *Penalty, err error) {
	logCtx := s.logger.With(slog.Int64("penaltyID", penaltyID), slog.Int64("officerID", actor.OfficerID))

	if !actor.CanClear() {
		return nil, fmt.Errorf("%w: role %q may not waive penalties", apperrors.ErrInsufficientPermission, actor.Role)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "is required")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	p, err := s.repo.GetPenaltyForUpdate(ctx, tx, penaltyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: penalty with ID %d not found", apperrors.ErrNotFound, penaltyID)
		}
		return nil, fmt.Errorf("%w: could not lock penalty: %w", apperrors.ErrInternalServer, err)
	}
	if p.Status != StatusPending {
		return nil, fmt.Errorf("%w: penalty %d is %s", apperrors.ErrPenaltyNotPending, penaltyID, p.Status)
	}

	waivedAt := s.now()
	officerID := actor.OfficerID
	p.Status = StatusWaived
	p.WaivedBy = &officerID
	p.WaivedDate = &waivedAt
	p.WaivedReason = reason

	if err = s.repo.WaivePenaltyInTx(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("%w: could not waive penalty: %w", apperrors.ErrInternalServer, err)
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}

	logCtx.InfoContext(ctx, "Penalty waived", slog.String("amount", p.Amount.StringFixed(2)))
	s.publish(ctx, event.New(event.TypePenaltyWaived, p.LoanID, actor.ID(), payloadFor(p)))
	return p, nil
}

func (s *service) ListByLoan(ctx context.Context, loanID int64) ([]Penalty, error) {
	penalties, err := s.repo.ListByLoan(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list penalties", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list penalties for loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}
	return penalties, nil
}

func (s *service) publish(ctx context.Context, e event.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", slog.String("type", string(e.Type)), slog.Any("error", err))
	}
}

func payloadFor(p *Penalty) event.PenaltyPayload {
	return event.PenaltyPayload{
		PenaltyID:     p.ID,
		InstallmentID: p.InstallmentID,
		PenaltyType:   string(p.Type),
		Amount:        p.Amount.StringFixed(2),
		Status:        string(p.Status),
		Reason:        p.Reason,
	}
}
