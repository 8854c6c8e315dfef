package batch

import (
	"context"
	"coop-loans/internal/domain/penalty"
	"coop-loans/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const penaltySweepJobName = "penalty_sweep"

// PenaltySweepJob flags overdue installments and charges the flat late
// penalty on those that have none yet.
type PenaltySweepJob struct {
	penaltyService penalty.Service
	timeout        time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewPenaltySweepJob(penaltySvc penalty.Service, timeout time.Duration, logger *slog.Logger) *PenaltySweepJob {
	if penaltySvc == nil || logger == nil {
		panic("PenaltySweepJob dependencies cannot be nil")
	}
	return &PenaltySweepJob{
		penaltyService: penaltySvc,
		timeout:        timeout,
		logger:         logger.With("job", "PenaltySweep"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps as of today's date.
func (j *PenaltySweepJob) Run(ctx context.Context) error {
	today := j.now()
	return j.RunAsOf(ctx, time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC))
}

func (j *PenaltySweepJob) RunAsOf(ctx context.Context, asOf time.Time) error {
	startTime := time.Now()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	logCtx := j.logger.With(slog.String("asOf", asOf.Format(time.DateOnly)))
	logCtx.InfoContext(ctx, "Starting late penalty sweep.")

	marked, err := j.penaltyService.MarkOverdue(ctx, asOf)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to mark overdue installments, aborting job.", slog.Any("error", err))
		monitoring.RecordBatchJob(penaltySweepJobName, "failure", time.Since(startTime))
		return fmt.Errorf("cannot run job, failed to mark overdue installments: %w", err)
	}
	logCtx.InfoContext(ctx, "Overdue installments marked.", slog.Int64("count", marked))

	result, err := j.penaltyService.ApplyLatePenalties(ctx, asOf)
	duration := time.Since(startTime)
	summaryLog := logCtx.With(
		slog.Duration("duration", duration),
		slog.Int64("installments_marked_overdue", marked),
		slog.Int("candidates", result.Candidates),
		slog.Int("penalties_applied", result.Applied),
		slog.Int("already_charged", result.Skipped),
		slog.Int("errors_encountered", result.Failed),
	)

	if err != nil {
		summaryLog.WarnContext(ctx, "Late penalty sweep finished with errors.", slog.Any("error", err))
		monitoring.RecordBatchJob(penaltySweepJobName, "failure", duration)
		return err
	}
	summaryLog.InfoContext(ctx, "Late penalty sweep finished successfully.")
	monitoring.RecordBatchJob(penaltySweepJobName, "success", duration)
	return nil
}

// Schedule registers the job on a cron runner using a standard five-field
// expression. The caller starts and stops the returned runner.
func (j *PenaltySweepJob) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		if err := j.Run(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Scheduled penalty sweep failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid penalty sweep schedule %q: %w", spec, err)
	}
	return c, nil
}
