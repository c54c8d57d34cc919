package sproutbank_test

import (
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/mbrodan/sproutbank"
	"github.com/mbrodan/sproutbank/mocks"
)

func TestValidationMWCreateAccount(t *testing.T) {
	t.Run("returns an error on an empty name", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		v := sproutbank.NewValidationMiddleware()(svc)

		acct, err := v.CreateAccount(sproutbank.CreateAccountReq{Name: ""})
		as.NotNil(err)
		as.ErrorAs(err, &sproutbank.ErrBadRequest{})
		as.Nil(acct)
	})

	t.Run("passes a valid request through", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			CreateAccount(sproutbank.CreateAccountReq{Name: "Maya"}).
			Return(&sproutbank.Account{Name: "Maya"}, nil).
			Times(1)
		v := sproutbank.NewValidationMiddleware()(svc)

		acct, err := v.CreateAccount(sproutbank.CreateAccountReq{Name: "Maya"})
		as.Nil(err)
		as.Equal("Maya", acct.Name)
	})
}

func TestValidationMWCharge(t *testing.T) {
	t.Run("rejects a non-positive deposit before it reaches the ledger", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		v := sproutbank.NewValidationMiddleware()(svc)

		txn, err := v.Deposit(sproutbank.ChargeReq{
			Amount: decimal.NewFromInt(-5),
			AcctID: snowflake.ParseInt64(7241722241547767808),
		})
		as.NotNil(err)
		as.ErrorAs(err, &sproutbank.ErrBadRequest{})
		as.Nil(txn)
	})

	t.Run("rejects a withdrawal that rounds to zero cents", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		v := sproutbank.NewValidationMiddleware()(svc)

		txn, err := v.Withdraw(sproutbank.ChargeReq{
			Amount: decimal.RequireFromString("0.004"),
			AcctID: snowflake.ParseInt64(7241722241547767808),
		})
		as.NotNil(err)
		as.Nil(txn)
	})

	t.Run("rejects a negative interest rate", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		v := sproutbank.NewValidationMiddleware()(svc)

		err := v.UpdateInterestRate(sproutbank.RateReq{
			Rate:   decimal.NewFromInt(-1),
			AcctID: snowflake.ParseInt64(7241722241547767808),
		})
		as.NotNil(err)
		as.ErrorAs(err, &sproutbank.ErrBadRequest{})
	})
}

func TestLimitMWShedsLoad(t *testing.T) {
	as := assert.New(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	// a single charge token held by a blocked call would stall the test
	// for the full acquisition timeout; exhaust it up front instead
	limits := sproutbank.NewServiceLimits(1, 1, 1, 1)
	as.True(limits.Charge.TryAcquire(1))
	defer limits.Charge.Release(1)

	l := sproutbank.NewLimitMiddleware(limits)(svc)
	_, err := l.Deposit(sproutbank.ChargeReq{
		Amount: decimal.NewFromInt(5),
		AcctID: snowflake.ParseInt64(7241722241547767808),
	})
	as.ErrorIs(err, sproutbank.ErrOverloaded)
}

func TestCircuitBreakMW(t *testing.T) {
	t.Run("caller errors do not trip the breaker", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Withdraw(gomock.Any()).
			Return(nil, sproutbank.ErrInsufficientFunds).
			Times(10)

		c := sproutbank.NewCircuitBreakMiddleware(sproutbank.NewServiceBreaker())(svc)
		req := sproutbank.ChargeReq{
			Amount: decimal.NewFromInt(9999),
			AcctID: snowflake.ParseInt64(7241722241547767808),
		}
		for i := 0; i < 10; i++ {
			_, err := c.Withdraw(req)
			as.ErrorIs(err, sproutbank.ErrInsufficientFunds)
		}
		// breaker still closed: the next call reaches the service
		svc.EXPECT().
			Withdraw(gomock.Any()).
			Return(nil, sproutbank.ErrInsufficientFunds).
			Times(1)
		_, err := c.Withdraw(req)
		as.ErrorIs(err, sproutbank.ErrInsufficientFunds)
	})

	t.Run("consecutive service failures open the breaker", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		// gobreaker defaults open after 5 consecutive failures
		svc.EXPECT().
			Withdraw(gomock.Any()).
			Return(nil, errors.New("db down")).
			Times(6)

		c := sproutbank.NewCircuitBreakMiddleware(sproutbank.NewServiceBreaker())(svc)
		req := sproutbank.ChargeReq{
			Amount: decimal.NewFromInt(5),
			AcctID: snowflake.ParseInt64(7241722241547767808),
		}
		for i := 0; i < 6; i++ {
			_, err := c.Withdraw(req)
			as.NotNil(err)
		}
		_, err := c.Withdraw(req)
		as.ErrorIs(err, sproutbank.ErrOverloaded)
	})
}
