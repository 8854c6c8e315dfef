package handler

import (
	"coop-loans/internal/api/handler/dto"
	"coop-loans/internal/api/middleware"
	"coop-loans/internal/config"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
		now:    time.Now,
	}
}

// GenerateBearerToken issues a development token carrying the officer's role.
//
// @Summary Generate a JWT bearer token
// @Description Issues an HS256 token with role and officer_id claims. Disabled unless server.auth.issueTokens is set.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Officer identity"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 404 {object} dto.ErrorResponse "Token issuing disabled"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.IssueTokens {
		respondError(w, fmt.Errorf("%w: token issuing is disabled", apperrors.ErrNotFound))
		return
	}

	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Username == "" {
		respondError(w, apperrors.NewValidationError("username", "is required"))
		return
	}
	switch req.Role {
	case loan.RoleAdmin, loan.RoleOfficial, loan.RoleStaff:
	default:
		respondError(w, apperrors.NewValidationError("role", "must be one of admin, official, staff"))
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	issuedAt := h.now()
	expiresAt := issuedAt.Add(ttl)
	claims := middleware.Claims{
		Role:      req.Role,
		OfficerID: req.OfficerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("%w: failed to sign token", apperrors.ErrInternalServer))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", "subject", req.Username, "role", req.Role)
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + tokenString, ExpiresAt: expiresAt})
}
