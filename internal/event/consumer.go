package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditBindings covers every event the service publishes.
var AuditBindings = []string{"loan.#", "penalty.#"}

type DeliveryHandler func(ctx context.Context, d amqp.Delivery)

type Consumer struct {
	channel     *amqp.Channel
	queueName   string
	consumerTag string
	handler     DeliveryHandler
	logger      *slog.Logger
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc
	done        chan struct{}
}

// NewConsumer declares the exchange and binds a queue to it. An empty
// queueName gets a broker-named exclusive queue that disappears with the
// consumer.
func NewConsumer(
	conn *amqp.Connection,
	exchangeName, queueName, consumerTag string,
	bindings []string,
	handler DeliveryHandler,
	logger *slog.Logger,
) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}

	durable, exclusive := true, false
	if queueName == "" {
		durable, exclusive = false, true
	}
	q, err := ch.QueueDeclare(queueName, durable, !durable, exclusive, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	for _, key := range bindings {
		logger.Info("Binding queue", "queue", q.Name, "exchange", exchangeName, "key", key)
		if err := ch.QueueBind(q.Name, key, exchangeName, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to bind queue '%s' with key '%s': %w", q.Name, key, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		channel:     ch,
		queueName:   q.Name,
		consumerTag: consumerTag,
		handler:     handler,
		logger:      logger.With("component", "Consumer", "queue", q.Name),
		done:        make(chan struct{}),
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queueName, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		_ = c.channel.Close()
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		consumeLoop(loopCtx, deliveries, c.handler, c.logger)
	}()

	c.logger.Info("Consumer started")
	return nil
}

// Done is closed once the consumption loop has exited.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) Stop() {
	if c.cancelFunc == nil {
		c.logger.Warn("Consumer stop called before start")
		return
	}
	c.cancelFunc()

	if err := c.channel.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer tag", "tag", c.consumerTag, "error", err)
	}
	c.wg.Wait()

	if err := c.channel.Close(); err != nil {
		c.logger.Error("Failed to close consumer channel", "error", err)
		return
	}
	c.logger.Info("Consumer stopped")
}

func consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery, handler DeliveryHandler, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("RabbitMQ delivery channel closed")
				return
			}
			handler(ctx, d)
		}
	}
}
