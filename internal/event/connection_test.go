package event

import (
	"coop-loans/internal/config"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerURI(t *testing.T) {
	t.Run("builds credentials into the URI", func(t *testing.T) {
		uri, err := BrokerURI(config.RabbitMQConfig{Host: "mq", Port: 5673, Username: "coop", Password: "secret"})
		require.NoError(t, err)
		parsed, err := amqp.ParseURI(uri)
		require.NoError(t, err)
		assert.Equal(t, "mq", parsed.Host)
		assert.Equal(t, 5673, parsed.Port)
		assert.Equal(t, "coop", parsed.Username)
		assert.Equal(t, "secret", parsed.Password)
	})

	t.Run("defaults the port", func(t *testing.T) {
		uri, err := BrokerURI(config.RabbitMQConfig{Host: "mq"})
		require.NoError(t, err)
		parsed, err := amqp.ParseURI(uri)
		require.NoError(t, err)
		assert.Equal(t, 5672, parsed.Port)
	})

	t.Run("requires a host", func(t *testing.T) {
		_, err := BrokerURI(config.RabbitMQConfig{})
		assert.Error(t, err)
	})

	t.Run("rejects a lone username", func(t *testing.T) {
		_, err := BrokerURI(config.RabbitMQConfig{Host: "mq", Username: "coop"})
		assert.Error(t, err)
	})
}

func TestDialRejectsBadConfig(t *testing.T) {
	_, err := Dial(config.RabbitMQConfig{}, testLogger)
	assert.ErrorContains(t, err, "host is not configured")
}
