package handler

import (
	"coop-loans/internal/api/handler/dto"
	"coop-loans/internal/domain/member"
	"log/slog"
	"net/http"
)

type MemberHandler struct {
	service member.MemberService
	logger  *slog.Logger
}

func NewMemberHandler(s member.MemberService, l *slog.Logger) *MemberHandler {
	return &MemberHandler{
		service: s,
		logger:  l.With("component", "MemberHandler"),
	}
}

// GetSavingsBalance returns the member's current savings balance.
//
// @Summary Retrieve member savings balance
// @Tags Members
// @Produce json
// @Param memberID path int true "Member ID"
// @Success 200 {object} dto.SavingsBalanceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid member ID"
// @Failure 404 {object} dto.ErrorResponse "Member not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /members/{memberID}/savings [get]
// @Security BearerAuth
func (h *MemberHandler) GetSavingsBalance(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIDFromURL(r, "memberID")
	if err != nil {
		respondError(w, invalidArgument(err))
		return
	}

	balance, err := h.service.GetSavingsBalance(r.Context(), memberID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewSavingsBalanceResponse(memberID, balance))
}
