package loan

import (
	"context"
	"coop-loans/internal/domain/member"
	"coop-loans/internal/event"
	"coop-loans/internal/infrastructure/monitoring"
	"coop-loans/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("coop-loans/internal/domain/loan")

type OverpaymentPolicy string

const (
	OverpaymentToSavings OverpaymentPolicy = "savings"
	OverpaymentReject    OverpaymentPolicy = "reject"
)

type Options struct {
	DefaultMonthlySavings decimal.Decimal
	OverpaymentPolicy     OverpaymentPolicy
}

type CreateLoanParams struct {
	LoanNumber       string
	MemberID         int64
	SocietyID        int64
	OfficerID        int64
	ProductID        int64
	Amount           decimal.Decimal
	InterestRate     decimal.Decimal
	TenureMonths     int
	MonthlySavings   *decimal.Decimal
	DisbursementDate time.Time
	FirstDueDate     time.Time
}

func (p CreateLoanParams) ScheduleInput() ScheduleInput {
	savings := decimal.Zero
	if p.MonthlySavings != nil {
		savings = *p.MonthlySavings
	}
	return ScheduleInput{
		Amount:         p.Amount,
		AnnualRate:     p.InterestRate,
		TenureMonths:   p.TenureMonths,
		MonthlySavings: savings,
		FirstDueDate:   p.FirstDueDate,
	}
}

func (p CreateLoanParams) validateReferences() error {
	refs := []struct {
		field string
		id    int64
	}{
		{"memberId", p.MemberID},
		{"societyId", p.SocietyID},
		{"officerId", p.OfficerID},
		{"productId", p.ProductID},
	}
	for _, ref := range refs {
		if ref.id <= 0 {
			return apperrors.NewValidationError(ref.field, "is required")
		}
	}
	return nil
}

type MakePaymentParams struct {
	LoanID        int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	ReceiptNumber string
	ProcessedBy   *int64
	Remarks       string
	AsOf          time.Time
}

type PaymentResult struct {
	Loan           *Loan
	Installment    *Installment
	Payment        *Payment
	Split          Split
	PreviousStatus LoanStatus
	SavingsCredit  *SavingsEntry
}

type ClearanceResult struct {
	Loan           *Loan
	PreviousStatus LoanStatus
	SavingsReturn  *SavingsEntry
}

type Outstanding struct {
	LoanID    int64
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Penalties decimal.Decimal
	Total     decimal.Decimal
}

type LoanService interface {
	CreateLoan(ctx context.Context, p CreateLoanParams) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	GetLoanSchedule(ctx context.Context, loanID int64) ([]Installment, error)

	GetOutstanding(ctx context.Context, loanID int64) (*Outstanding, error)

	PreviewSchedule(in ScheduleInput) ([]Installment, error)

	MakePayment(ctx context.Context, p MakePaymentParams) (*PaymentResult, error)

	ClearLoan(ctx context.Context, loanID int64, actor Actor) (*ClearanceResult, error)

	ListPayments(ctx context.Context, loanID int64) ([]Payment, error)
}

type loanServiceImpl struct {
	repo          Repository
	memberService member.MemberService
	publisher     event.Publisher
	retrier       Retrier
	numbers       NumberGenerator
	opts          Options
	logger        *slog.Logger
	now           func() time.Time
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }

func NewLoanService(r Repository, ms member.MemberService, pub event.Publisher, retrier Retrier, numbers NumberGenerator, opts Options, logger *slog.Logger) LoanService {
	if pub == nil {
		pub = event.NewNopPublisher(logger)
	}
	if retrier == nil {
		retrier = noRetry{}
	}
	if opts.OverpaymentPolicy == "" {
		opts.OverpaymentPolicy = OverpaymentToSavings
	}
	return &loanServiceImpl{
		repo:          r,
		memberService: ms,
		publisher:     pub,
		retrier:       retrier,
		numbers:       numbers,
		opts:          opts,
		logger:        logger.With("component", "LoanService"),
		now:           time.Now,
	}
}

func (s *loanServiceImpl) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, p CreateLoanParams) (_ *Loan, err error) {
	ctx, span := tracer.Start(ctx, "LoanService.CreateLoan", trace.WithAttributes(attribute.Int64("member.id", p.MemberID)))
	defer span.End()
	logCtx := s.logger.With(slog.Int64("memberID", p.MemberID))
	logCtx.InfoContext(ctx, "Creating new loan")

	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
			if errors.Is(err, apperrors.ErrValidation) {
				status = "failure_validation"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		monitoring.RecordLoanCreated(status)
	}()

	if err := p.validateReferences(); err != nil {
		logCtx.WarnContext(ctx, "Rejected loan with missing reference", slog.Any("error", err))
		return nil, err
	}
	if p.MonthlySavings == nil {
		savings := s.opts.DefaultMonthlySavings
		p.MonthlySavings = &savings
	}
	if p.DisbursementDate.IsZero() {
		p.DisbursementDate = s.today()
	}

	m, err := s.memberService.GetMember(ctx, p.MemberID)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Member not found")
			return nil, apperrors.NewValidationError("memberId", fmt.Sprintf("member %d not found", p.MemberID))
		}
		logCtx.ErrorContext(ctx, "Failed to get member details", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify member status: %w", err)
	}
	if !m.Active {
		logCtx.WarnContext(ctx, "Attempted to create loan for inactive member")
		return nil, apperrors.NewValidationError("memberId", fmt.Sprintf("member %d is not active", p.MemberID))
	}
	if m.SocietyID != p.SocietyID {
		logCtx.WarnContext(ctx, "Member does not belong to society", slog.Int64("societyID", p.SocietyID))
		return nil, apperrors.NewValidationError("societyId", fmt.Sprintf("member %d does not belong to society %d", p.MemberID, p.SocietyID))
	}

	schedule, err := GenerateSchedule(p.ScheduleInput())
	if err != nil {
		logCtx.WarnContext(ctx, "Failed to generate loan schedule", slog.Any("error", err))
		return nil, err
	}

	if p.LoanNumber == "" {
		p.LoanNumber = s.numbers.LoanNumber(s.now())
	}
	newLoan := NewLoan(p, schedule)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	created, err := s.repo.CreateLoanInTx(ctx, tx, newLoan, schedule)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to save loan and schedule", slog.Any("error", err))
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to save loan and schedule: %w", apperrors.ErrInternalServer, err)
	}

	err = s.repo.InsertStatusChangeInTx(ctx, tx, StatusChange{
		LoanID:    created.ID,
		NewStatus: StatusPending,
		ChangedBy: &p.OfficerID,
		Reason:    "loan created",
		ChangedAt: s.now(),
	})
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to record initial loan status", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to record loan status: %w", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}

	s.publish(ctx, event.New(event.TypeLoanCreated, created.ID, &p.OfficerID, event.LoanCreatedPayload{
		LoanNumber:   created.LoanNumber,
		MemberID:     created.MemberID,
		Amount:       created.Amount.StringFixed(2),
		TenureMonths: created.TenureMonths,
		TotalPayable: created.TotalPayable.StringFixed(2),
		FirstDueDate: created.FirstDueDate.Format(time.DateOnly),
		LastDueDate:  created.LastDueDate.Format(time.DateOnly),
	}))
	logCtx.InfoContext(ctx, "Loan created successfully", slog.Int64("loanID", created.ID), slog.String("loanNumber", created.LoanNumber))
	return created, nil
}

func (s *loanServiceImpl) PreviewSchedule(in ScheduleInput) ([]Installment, error) {
	return GenerateSchedule(in)
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.DebugContext(ctx, "Getting loan details", "loanID", loanID)
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}

	schedule, err := s.repo.GetScheduleByLoanID(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get loan schedule", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get schedule for loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}
	l.Schedule = schedule
	return l, nil
}

func (s *loanServiceImpl) GetLoanSchedule(ctx context.Context, loanID int64) ([]Installment, error) {
	schedule, err := s.repo.GetScheduleByLoanID(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get loan schedule", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get schedule for loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}
	if len(schedule) == 0 {
		if err := s.ensureLoanExists(ctx, loanID); err != nil {
			return nil, err
		}
	}
	return schedule, nil
}

func (s *loanServiceImpl) GetOutstanding(ctx context.Context, loanID int64) (*Outstanding, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}

	penalties, err := s.repo.GetPendingPenaltyTotal(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sum pending penalties", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get penalties for loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}

	return &Outstanding{
		LoanID:    loanID,
		Principal: l.OutstandingPrincipal,
		Interest:  l.OutstandingInterest,
		Penalties: penalties,
		Total:     l.Outstanding().Add(penalties),
	}, nil
}

func (s *loanServiceImpl) ListPayments(ctx context.Context, loanID int64) ([]Payment, error) {
	payments, err := s.repo.ListPayments(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list payments", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to list payments for loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}
	if len(payments) == 0 {
		if err := s.ensureLoanExists(ctx, loanID); err != nil {
			return nil, err
		}
	}
	return payments, nil
}

func (s *loanServiceImpl) ensureLoanExists(ctx context.Context, loanID int64) error {
	_, err := s.repo.GetLoanByID(ctx, loanID)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
		return fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
	}
	return fmt.Errorf("%w: failed to get loan %d: %w", apperrors.ErrInternalServer, loanID, err)
}

func (s *loanServiceImpl) MakePayment(ctx context.Context, p MakePaymentParams) (*PaymentResult, error) {
	ctx, span := tracer.Start(ctx, "LoanService.MakePayment", trace.WithAttributes(attribute.Int64("loan.id", p.LoanID)))
	defer span.End()
	logCtx := s.logger.With(slog.Int64("loanID", p.LoanID), slog.String("amount", p.Amount.String()))
	logCtx.InfoContext(ctx, "Making payment")

	var result *PaymentResult
	err := s.preparePayment(&p)
	if err == nil {
		err = s.retrier.Retry(ctx, func() error {
			var txErr error
			result, txErr = s.makePaymentTx(ctx, p)
			return txErr
		})
	}

	status := paymentStatusLabel(err)
	monitoring.RecordPayment(status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status == "failure_internal" {
			logCtx.ErrorContext(ctx, "Payment failed", slog.Any("error", err))
		} else {
			logCtx.WarnContext(ctx, "Payment rejected", slog.String("reason", status), slog.Any("error", err))
		}
		return nil, err
	}

	s.publishPayment(ctx, p, result)
	logCtx.InfoContext(ctx, "Payment processed successfully",
		slog.String("receiptNumber", result.Payment.ReceiptNumber),
		slog.Int("installment", result.Installment.InstallmentNumber),
		slog.String("installmentStatus", string(result.Installment.Status)),
		slog.String("loanStatus", string(result.Loan.Status)),
	)
	return result, nil
}

func (s *loanServiceImpl) preparePayment(p *MakePaymentParams) error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidPaymentAmount)
	}
	if !p.Amount.Equal(round2(p.Amount)) {
		return fmt.Errorf("%w: amount %s has more than two decimal places", apperrors.ErrInvalidPaymentAmount, p.Amount.String())
	}
	if p.Method == "" {
		p.Method = MethodCash
	}
	if !p.Method.Valid() {
		return apperrors.NewValidationError("method", fmt.Sprintf("unsupported payment method %q", p.Method))
	}
	if p.AsOf.IsZero() {
		p.AsOf = s.today()
	}
	if p.ReceiptNumber == "" {
		p.ReceiptNumber = s.numbers.ReceiptNumber(s.now())
	}
	return nil
}

func (s *loanServiceImpl) makePaymentTx(ctx context.Context, p MakePaymentParams) (result *PaymentResult, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during payment processing", "loanID", p.LoanID, "error", r)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(r)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	l, err := s.lockLoan(ctx, tx, p.LoanID)
	if err != nil {
		return nil, err
	}
	if err = l.CheckPayable(); err != nil {
		return nil, err
	}

	inst, err := s.repo.FindEarliestUnsettledInstallmentForUpdate(ctx, tx, p.LoanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %d has no unsettled installment", apperrors.ErrNoDueInstallment, p.LoanID)
		}
		return nil, fmt.Errorf("%w: could not find installment to pay: %w", apperrors.ErrInternalServer, err)
	}

	alloc, err := Allocate(*inst, p.Amount, p.AsOf)
	if err != nil {
		return nil, err
	}
	if alloc.Split.Excess.IsPositive() && s.opts.OverpaymentPolicy == OverpaymentReject {
		return nil, fmt.Errorf("%w: installment %d needs %s, received %s",
			apperrors.ErrOverpayment, inst.InstallmentNumber, inst.AmountDue().StringFixed(2), p.Amount.StringFixed(2))
	}

	previous, next := l.ApplyAllocation(alloc.Split)
	updated := alloc.Installment

	if err = s.repo.UpdateInstallmentInTx(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("%w: could not update installment: %w", apperrors.ErrInternalServer, err)
	}
	if alloc.Split.Penalty.IsPositive() && updated.PenaltyPaid.GreaterThanOrEqual(updated.PenaltyApplied) {
		if err = s.repo.MarkPenaltiesPaidInTx(ctx, tx, updated.ID); err != nil {
			return nil, fmt.Errorf("%w: could not settle penalty: %w", apperrors.ErrInternalServer, err)
		}
	}
	if err = s.repo.UpdateLoanBalancesInTx(ctx, tx, l); err != nil {
		return nil, fmt.Errorf("%w: could not update loan balances: %w", apperrors.ErrInternalServer, err)
	}
	if previous != next {
		err = s.repo.InsertStatusChangeInTx(ctx, tx, StatusChange{
			LoanID:    l.ID,
			OldStatus: previous,
			NewStatus: next,
			ChangedBy: p.ProcessedBy,
			Reason:    "payment " + p.ReceiptNumber,
			ChangedAt: s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: could not record status change: %w", apperrors.ErrInternalServer, err)
		}
	}

	installmentID := updated.ID
	payment, err := s.repo.InsertPaymentInTx(ctx, tx, &Payment{
		LoanID:        l.ID,
		InstallmentID: &installmentID,
		ReceiptNumber: p.ReceiptNumber,
		Amount:        p.Amount,
		PrincipalPaid: alloc.Split.Principal,
		InterestPaid:  alloc.Split.Interest,
		SavingsPaid:   alloc.Split.Savings,
		PenaltyPaid:   alloc.Split.Penalty,
		ExcessAmount:  alloc.Split.Excess,
		Method:        p.Method,
		PaymentDate:   p.AsOf,
		ProcessedBy:   p.ProcessedBy,
		Remarks:       p.Remarks,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: receipt number %s", err, p.ReceiptNumber)
		}
		return nil, fmt.Errorf("%w: could not record payment: %w", apperrors.ErrInternalServer, err)
	}

	var credit *SavingsEntry
	if alloc.Split.Excess.IsPositive() {
		credit, err = s.creditSavingsInTx(ctx, tx, l, SavingsDeposit, alloc.Split.Excess,
			fmt.Sprintf("excess on receipt %s", p.ReceiptNumber), p.AsOf)
		if err != nil {
			return nil, err
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}

	return &PaymentResult{
		Loan:           l,
		Installment:    &updated,
		Payment:        payment,
		Split:          alloc.Split,
		PreviousStatus: previous,
		SavingsCredit:  credit,
	}, nil
}

func (s *loanServiceImpl) ClearLoan(ctx context.Context, loanID int64, actor Actor) (*ClearanceResult, error) {
	ctx, span := tracer.Start(ctx, "LoanService.ClearLoan", trace.WithAttributes(
		attribute.Int64("loan.id", loanID),
		attribute.String("actor.role", actor.Role),
	))
	defer span.End()
	logCtx := s.logger.With(slog.Int64("loanID", loanID), slog.Int64("officerID", actor.OfficerID))

	var result *ClearanceResult
	var err error
	if !actor.CanClear() {
		err = fmt.Errorf("%w: role %q may not clear loans", apperrors.ErrInsufficientPermission, actor.Role)
	} else {
		err = s.retrier.Retry(ctx, func() error {
			var txErr error
			result, txErr = s.clearLoanTx(ctx, loanID, actor)
			return txErr
		})
	}

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrInsufficientPermission):
		status = "failure_permission"
	case errors.Is(err, apperrors.ErrAlreadyCleared):
		status = "failure_already_cleared"
	case errors.Is(err, apperrors.ErrNotFound):
		status = "failure_not_found"
	default:
		status = "failure_internal"
	}
	monitoring.RecordClearance(status)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logCtx.WarnContext(ctx, "Loan clearance rejected", slog.String("reason", status), slog.Any("error", err))
		return nil, err
	}

	returned := decimal.Zero
	if result.SavingsReturn != nil {
		returned = result.SavingsReturn.Amount
	}
	s.publish(ctx, event.New(event.TypeLoanStatusChanged, loanID, actor.ID(), event.LoanStatusChangedPayload{
		OldStatus: string(result.PreviousStatus),
		NewStatus: string(result.Loan.Status),
		Reason:    "cleared by official",
	}))
	s.publish(ctx, event.New(event.TypeLoanCleared, loanID, actor.ID(), event.LoanClearedPayload{
		MemberID:      result.Loan.MemberID,
		ClearedBy:     actor.OfficerID,
		ClearedAt:     *result.Loan.ClearedAt,
		SavingsReturn: returned.StringFixed(2),
	}))
	logCtx.InfoContext(ctx, "Loan cleared", slog.String("savingsReturned", returned.StringFixed(2)))
	return result, nil
}

func (s *loanServiceImpl) clearLoanTx(ctx context.Context, loanID int64, actor Actor) (result *ClearanceResult, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	l, err := s.lockLoan(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	previous := l.Status
	clearedAt := s.now()
	if err = l.Clear(actor.OfficerID, clearedAt); err != nil {
		return nil, err
	}

	schedule, err := s.repo.GetScheduleInTx(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read schedule: %w", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.MarkLoanClearedInTx(ctx, tx, l); err != nil {
		return nil, fmt.Errorf("%w: could not mark loan cleared: %w", apperrors.ErrInternalServer, err)
	}
	err = s.repo.InsertStatusChangeInTx(ctx, tx, StatusChange{
		LoanID:    loanID,
		OldStatus: previous,
		NewStatus: StatusCleared,
		ChangedBy: actor.ID(),
		Reason:    "cleared by official",
		ChangedAt: clearedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not record status change: %w", apperrors.ErrInternalServer, err)
	}

	var entry *SavingsEntry
	if amount := SavingsReturnAmount(schedule); amount.IsPositive() {
		entry, err = s.creditSavingsInTx(ctx, tx, l, SavingsReturn, amount,
			fmt.Sprintf("savings returned on clearance of loan %s", l.LoanNumber), clearedAt)
		if err != nil {
			return nil, err
		}
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}

	l.Schedule = schedule
	return &ClearanceResult{Loan: l, PreviousStatus: previous, SavingsReturn: entry}, nil
}

func (s *loanServiceImpl) lockLoan(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: could not lock loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) creditSavingsInTx(ctx context.Context, tx pgx.Tx, l *Loan, entryType SavingsEntryType, amount decimal.Decimal, description string, at time.Time) (*SavingsEntry, error) {
	balance, err := s.repo.GetLatestSavingsBalanceInTx(ctx, tx, l.MemberID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read savings balance: %w", apperrors.ErrInternalServer, err)
	}

	loanID := l.ID
	entry, err := s.repo.InsertSavingsEntryInTx(ctx, tx, &SavingsEntry{
		MemberID:        l.MemberID,
		LoanID:          &loanID,
		Type:            entryType,
		Amount:          amount,
		Balance:         balance.Add(amount),
		Description:     description,
		TransactionDate: at,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not record savings entry: %w", apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

func (s *loanServiceImpl) publishPayment(ctx context.Context, p MakePaymentParams, r *PaymentResult) {
	s.publish(ctx, event.New(event.TypePaymentAllocated, r.Loan.ID, p.ProcessedBy, event.PaymentAllocatedPayload{
		ReceiptNumber:        r.Payment.ReceiptNumber,
		InstallmentNumber:    r.Installment.InstallmentNumber,
		Amount:               r.Payment.Amount.StringFixed(2),
		PenaltyPaid:          r.Split.Penalty.StringFixed(2),
		InterestPaid:         r.Split.Interest.StringFixed(2),
		PrincipalPaid:        r.Split.Principal.StringFixed(2),
		SavingsPaid:          r.Split.Savings.StringFixed(2),
		ExcessAmount:         r.Split.Excess.StringFixed(2),
		InstallmentStatus:    string(r.Installment.Status),
		OutstandingPrincipal: r.Loan.OutstandingPrincipal.StringFixed(2),
		OutstandingInterest:  r.Loan.OutstandingInterest.StringFixed(2),
	}))
	if r.PreviousStatus != r.Loan.Status {
		s.publish(ctx, event.New(event.TypeLoanStatusChanged, r.Loan.ID, p.ProcessedBy, event.LoanStatusChangedPayload{
			OldStatus: string(r.PreviousStatus),
			NewStatus: string(r.Loan.Status),
			Reason:    "payment " + r.Payment.ReceiptNumber,
		}))
	}
}

func (s *loanServiceImpl) publish(ctx context.Context, e event.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			slog.String("type", string(e.Type)),
			slog.Int64("loanID", e.LoanID),
			slog.Any("error", err),
		)
	}
}

func paymentStatusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidPaymentAmount):
		return "failure_amount"
	case errors.Is(err, apperrors.ErrValidation):
		return "failure_validation"
	case errors.Is(err, apperrors.ErrNoDueInstallment):
		return "failure_no_due"
	case errors.Is(err, apperrors.ErrLoanNotPayable):
		return "failure_not_payable"
	case errors.Is(err, apperrors.ErrOverpayment):
		return "failure_overpayment"
	case errors.Is(err, apperrors.ErrNotFound):
		return "failure_not_found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "failure_duplicate_receipt"
	default:
		return "failure_internal"
	}
}
