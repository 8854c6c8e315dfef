package logging

import (
	"bytes"
	"context"
	"coop-loans/internal/config"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler(t *testing.T) {
	t.Run("json encoding by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(&buf, config.LoggerConfig{Level: "info"}))

		logger.Info("Payment processed", "loanID", int64(7))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Payment processed", entry["msg"])
		assert.Equal(t, float64(7), entry["loanID"])
	})

	t.Run("text encoding and level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		h := newHandler(&buf, config.LoggerConfig{Level: "warn", Encoding: "text"})

		assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))

		slog.New(h).Warn("Late penalty skipped")
		assert.Contains(t, buf.String(), `msg="Late penalty skipped"`)
	})
}
