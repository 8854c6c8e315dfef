package event

import (
	"context"
	"coop-loans/internal/infrastructure/monitoring"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var knownTypes = map[Type]struct{}{
	TypeLoanCreated:       {},
	TypePaymentAllocated:  {},
	TypeLoanStatusChanged: {},
	TypeLoanCleared:       {},
	TypePenaltyApplied:    {},
	TypePenaltyWaived:     {},
}

type AuditSink interface {
	Record(ctx context.Context, e Event) error
}

// AuditHandler acknowledges each delivery once its event has reached the
// sink. Malformed or unknown messages are dropped without requeue.
type AuditHandler struct {
	sink   AuditSink
	logger *slog.Logger
}

func NewAuditHandler(sink AuditSink, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{sink: sink, logger: logger.With("component", "AuditHandler")}
}

func (h *AuditHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	if _, ok := knownTypes[Type(d.RoutingKey)]; !ok {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		monitoring.RecordEventConsumed("unknown", "rejected")
		_ = d.Reject(false)
		return
	}

	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal event", "error", err, "body", string(d.Body))
		monitoring.RecordEventConsumed(d.RoutingKey, "malformed")
		_ = d.Nack(false, false)
		return
	}
	if e.Type != Type(d.RoutingKey) {
		logCtx.WarnContext(ctx, "Event type does not match routing key", "type", e.Type)
		monitoring.RecordEventConsumed(d.RoutingKey, "malformed")
		_ = d.Nack(false, false)
		return
	}

	logCtx = logCtx.With(slog.String("eventId", e.ID), slog.Int64("loanId", e.LoanID))
	if err := h.sink.Record(ctx, e); err != nil {
		logCtx.ErrorContext(ctx, "Failed to record event", "error", err)
		monitoring.RecordEventConsumed(d.RoutingKey, "failed")
		_ = d.Nack(false, false)
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message", "error", err)
		return
	}
	monitoring.RecordEventConsumed(d.RoutingKey, "acked")
	logCtx.DebugContext(ctx, "Event recorded")
}

// JSONLineSink writes each event as one JSON document per line.
type JSONLineSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLineSink(w io.Writer) *JSONLineSink {
	return &JSONLineSink{enc: json.NewEncoder(w)}
}

func (s *JSONLineSink) Record(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(e); err != nil {
		return fmt.Errorf("failed to write event %s: %w", e.ID, err)
	}
	return nil
}
