package member

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("member not found")

type Member struct {
	ID           int64     `json:"id"`
	SocietyID    int64     `json:"societyId"`
	MemberNumber string    `json:"memberNumber"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Repository interface {
	FindByID(ctx context.Context, memberID int64) (*Member, error)
	GetSavingsBalance(ctx context.Context, memberID int64) (decimal.Decimal, error)
}
