package handler

import (
	"coop-loans/internal/api/handler/dto"
	"coop-loans/internal/domain/penalty"
	"log/slog"
	"net/http"
)

type PenaltyHandler struct {
	service penalty.Service
	logger  *slog.Logger
}

func NewPenaltyHandler(s penalty.Service, l *slog.Logger) *PenaltyHandler {
	return &PenaltyHandler{
		service: s,
		logger:  l.With("component", "PenaltyHandler"),
	}
}

// ListLoanPenalties lists every penalty charged to a loan.
//
// @Summary List loan penalties
// @Tags Penalties
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {array} dto.PenaltyResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/penalties [get]
// @Security BearerAuth
func (h *PenaltyHandler) ListLoanPenalties(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	penalties, err := h.service.ListByLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPenaltiesResponse(penalties))
}

// WaivePenalty waives a pending penalty.
//
// @Summary Waive a penalty
// @Description Only admins and officials may waive. The waived amount is removed from the installment's dues.
// @Tags Penalties
// @Accept json
// @Produce json
// @Param penaltyID path int true "Penalty ID"
// @Param request body dto.WaivePenaltyRequest true "Waiver reason"
// @Success 200 {object} dto.PenaltyResponse
// @Failure 400 {object} dto.ErrorResponse "Missing reason"
// @Failure 403 {object} dto.ErrorResponse "Caller may not waive penalties"
// @Failure 404 {object} dto.ErrorResponse "Penalty not found"
// @Failure 409 {object} dto.ErrorResponse "Penalty is no longer pending"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /penalties/{penaltyID}/waive [post]
// @Security BearerAuth
func (h *PenaltyHandler) WaivePenalty(w http.ResponseWriter, r *http.Request) {
	penaltyID, err := getIDFromURL(r, "penaltyID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	var req dto.WaivePenaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	waived, err := h.service.WaivePenalty(r.Context(), penaltyID, actorFromRequest(r), req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPenaltyResponse(*waived))
}
