package dto

import (
	"coop-loans/internal/domain/penalty"
	"time"

	"github.com/shopspring/decimal"
)

type WaivePenaltyRequest struct {
	Reason string `json:"reason" example:"Branch closed on due date"`
}

type PenaltyResponse struct {
	ID            int64      `json:"id"`
	LoanID        int64      `json:"loanId"`
	InstallmentID int64      `json:"installmentId"`
	PenaltyType   string     `json:"penaltyType"`
	Amount        string     `json:"amount"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	AppliedDate   string     `json:"appliedDate"`
	WaivedBy      *int64     `json:"waivedBy,omitempty"`
	WaivedDate    *time.Time `json:"waivedDate,omitempty"`
	WaivedReason  string     `json:"waivedReason,omitempty"`
}

func NewPenaltyResponse(p penalty.Penalty) PenaltyResponse {
	return PenaltyResponse{
		ID:            p.ID,
		LoanID:        p.LoanID,
		InstallmentID: p.InstallmentID,
		PenaltyType:   string(p.Type),
		Amount:        money(p.Amount),
		Reason:        p.Reason,
		Status:        string(p.Status),
		AppliedDate:   date(p.AppliedDate),
		WaivedBy:      p.WaivedBy,
		WaivedDate:    p.WaivedDate,
		WaivedReason:  p.WaivedReason,
	}
}

func NewPenaltiesResponse(penalties []penalty.Penalty) []PenaltyResponse {
	resp := make([]PenaltyResponse, len(penalties))
	for i, p := range penalties {
		resp[i] = NewPenaltyResponse(p)
	}
	return resp
}

type SavingsBalanceResponse struct {
	MemberID int64  `json:"memberId"`
	Balance  string `json:"balance"`
}

func NewSavingsBalanceResponse(memberID int64, balance decimal.Decimal) SavingsBalanceResponse {
	return SavingsBalanceResponse{MemberID: memberID, Balance: money(balance)}
}

type TokenRequest struct {
	Username  string `json:"username"`
	Role      string `json:"role" example:"official"`
	OfficerID int64  `json:"officerId"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
