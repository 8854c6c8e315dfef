package event

import (
	"context"
	"log/slog"
)

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct {
	logger *slog.Logger
}

func NewNopPublisher(logger *slog.Logger) *NopPublisher {
	return &NopPublisher{logger: logger.With("component", "NopPublisher")}
}

func (p *NopPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.DebugContext(ctx, "Dropping event, no broker configured",
		slog.String("eventId", e.ID),
		slog.String("type", string(e.Type)),
		slog.Int64("loanId", e.LoanID),
	)
	return nil
}
