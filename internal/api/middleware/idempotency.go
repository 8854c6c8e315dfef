package middleware

import (
	"bytes"
	"context"
	"coop-loans/internal/infrastructure/redis"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, []byte, error)
	Complete(ctx context.Context, key string, response []byte) error
	Release(ctx context.Context, key string) error
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first response for a repeated Idempotency-Key.
// Requests without the header, or with no store configured, pass through.
// Server errors release the key so the client can retry.
func Idempotency(store IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "Idempotency")

	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(HeaderIdempotencyKey)
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := r.Method + " " + r.URL.Path + " " + clientKey

			reserved, stored, err := store.Reserve(ctx, key)
			switch {
			case errors.Is(err, redis.ErrRequestInFlight):
				writeIdempotencyConflict(w)
				return
			case err != nil:
				logger.ErrorContext(ctx, "Idempotency store unavailable, processing without it", "error", err)
				next.ServeHTTP(w, r)
				return
			case !reserved:
				replay(w, stored, logger)
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
					logger.ErrorContext(ctx, "Failed to release idempotency key", "error", err)
				}
				return
			}

			payload, _ := json.Marshal(storedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.Bytes(),
			})
			if err := store.Complete(context.WithoutCancel(ctx), key, payload); err != nil {
				logger.ErrorContext(ctx, "Failed to store idempotent response", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, raw []byte, logger *slog.Logger) {
	var resp storedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Error("Stored idempotent response is unreadable", "error", err)
		writeIdempotencyConflict(w)
		return
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func writeIdempotencyConflict(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "IDEMPOTENCY_KEY_IN_USE",
			"message": "A request with this Idempotency-Key is still being processed",
		},
	})
}
