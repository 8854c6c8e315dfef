package middleware

import (
	"context"
	"coop-loans/internal/config"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the officer behind a request.
type Claims struct {
	Role      string `json:"role"`
	OfficerID int64  `json:"officer_id"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// Development headers honoured only while JWT auth is disabled.
const (
	HeaderOfficerID   = "X-Officer-ID"
	HeaderOfficerRole = "X-Officer-Role"
)

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "AuthMiddleware")
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if c := claimsFromHeaders(r); c != nil {
					r = r.WithContext(WithClaims(r.Context(), c))
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := validateJWT(r, cfg.JWTSecret)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected request", "path", r.URL.Path, "reason", err.Error())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "UNAUTHORIZED", "message": "Unauthorized"},
				})
				return
			}
			logger.DebugContext(r.Context(), "Authenticated request", "subject", claims.Subject, "role", claims.Role)
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func validateJWT(r *http.Request, secret string) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("invalid Authorization header format")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func claimsFromHeaders(r *http.Request) *Claims {
	role := strings.TrimSpace(r.Header.Get(HeaderOfficerRole))
	rawID := strings.TrimSpace(r.Header.Get(HeaderOfficerID))
	if role == "" && rawID == "" {
		return nil
	}
	officerID, _ := strconv.ParseInt(rawID, 10, 64)
	return &Claims{Role: strings.ToLower(role), OfficerID: officerID}
}
