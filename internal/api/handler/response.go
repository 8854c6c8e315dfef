package handler

import (
	"coop-loans/internal/api/handler/dto"
	"coop-loans/internal/api/middleware"
	"coop-loans/internal/domain/loan"
	"coop-loans/internal/domain/member"
	"coop-loans/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{member.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperrors.ErrInsufficientPermission, http.StatusForbidden, "INSUFFICIENT_PERMISSION"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperrors.ErrAlreadyCleared, http.StatusConflict, "ALREADY_CLEARED"},
	{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{apperrors.ErrPenaltyNotPending, http.StatusConflict, "PENALTY_NOT_PENDING"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperrors.ErrInvalidScheduleInput, http.StatusBadRequest, "INVALID_SCHEDULE_INPUT"},
	{apperrors.ErrInvalidPaymentAmount, http.StatusBadRequest, "INVALID_PAYMENT_AMOUNT"},
	{apperrors.ErrNoDueInstallment, http.StatusBadRequest, "NO_DUE_INSTALLMENT"},
	{apperrors.ErrLoanNotPayable, http.StatusBadRequest, "LOAN_NOT_PAYABLE"},
	{apperrors.ErrOverpayment, http.StatusBadRequest, "OVERPAYMENT"},
	{apperrors.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{apperrors.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message, field := http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred.", ""

	matched := false
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, code, message = m.status, m.code, err.Error()
			matched = true
			break
		}
	}

	if matched {
		field = apperrors.FieldOf(err)
	} else {
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	respondJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
	})
}

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}

func getIDFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%s not found in URL path", param)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", param)
	}
	return id, nil
}

func actorFromRequest(r *http.Request) loan.Actor {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return loan.Actor{}
	}
	return loan.Actor{OfficerID: claims.OfficerID, Role: claims.Role}
}
