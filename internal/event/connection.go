package event

import (
	"coop-loans/internal/config"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultAMQPPort = 5672

func BrokerURI(cfg config.RabbitMQConfig) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("RabbitMQ host is not configured")
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return "", fmt.Errorf("RabbitMQ username and password must be provided together")
	}
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Vhost:    "/",
	}
	if uri.Port == 0 {
		uri.Port = defaultAMQPPort
	}
	return uri.String(), nil
}

// Dial connects to the broker, retrying with exponential backoff. The
// returned connection logs when the broker blocks or closes it.
func Dial(cfg config.RabbitMQConfig, logger *slog.Logger) (*amqp.Connection, error) {
	uri, err := BrokerURI(cfg)
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	attempt := 0
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)

	err = backoff.Retry(func() error {
		attempt++
		var dialErr error
		conn, dialErr = amqp.Dial(uri)
		if dialErr != nil {
			logger.Warn("Failed to connect to RabbitMQ, retrying...", slog.Int("attempt", attempt), slog.Any("error", dialErr))
		}
		return dialErr
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempt, err)
	}

	logger.Info("Successfully connected to RabbitMQ", "host", cfg.Host)
	go func() {
		blockChan := conn.NotifyBlocked(make(chan amqp.Blocking, 1))
		closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case b := <-blockChan:
			logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
		case e := <-closeChan:
			if e != nil {
				logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
			}
		}
	}()
	return conn, nil
}
