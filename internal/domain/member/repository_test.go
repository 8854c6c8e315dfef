package member

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockMemberRepository struct {
	mock.Mock
}

func (_m *MockMemberRepository) FindByID(ctx context.Context, memberID int64) (*Member, error) {
	ret := _m.Called(ctx, memberID)

	var r0 *Member
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Member)
	}
	return r0, ret.Error(1)
}

func (_m *MockMemberRepository) GetSavingsBalance(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	ret := _m.Called(ctx, memberID)
	return ret.Get(0).(decimal.Decimal), ret.Error(1)
}
