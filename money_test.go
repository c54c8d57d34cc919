package sproutbank_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mbrodan/sproutbank"
)

func TestRound2(t *testing.T) {
	t.Run("rounds half away from zero", func(tt *testing.T) {
		as := assert.New(tt)
		as.Equal("0.01", sproutbank.Round2(decimal.RequireFromString("0.005")).StringFixed(2))
		as.Equal("5.51", sproutbank.Round2(decimal.RequireFromString("5.5125")).StringFixed(2))
		as.Equal("2.34", sproutbank.Round2(decimal.RequireFromString("2.344")).StringFixed(2))
		as.Equal("2.35", sproutbank.Round2(decimal.RequireFromString("2.345")).StringFixed(2))
		as.Equal("-0.01", sproutbank.Round2(decimal.RequireFromString("-0.005")).StringFixed(2))
	})
}

func TestValidAmount(t *testing.T) {
	t.Run("accepts positive amounts of at least half a cent", func(tt *testing.T) {
		as := assert.New(tt)
		as.Nil(sproutbank.ValidAmount(decimal.RequireFromString("0.005")))
		as.Nil(sproutbank.ValidAmount(decimal.NewFromInt(50)))
	})

	t.Run("rejects zero, negative, and sub-cent amounts", func(tt *testing.T) {
		as := assert.New(tt)
		as.ErrorIs(sproutbank.ValidAmount(decimal.Zero), sproutbank.ErrInvalidAmount)
		as.ErrorIs(sproutbank.ValidAmount(decimal.NewFromInt(-1)), sproutbank.ErrInvalidAmount)
		as.ErrorIs(sproutbank.ValidAmount(decimal.RequireFromString("0.004")), sproutbank.ErrInvalidAmount)
	})
}

func TestAmountFromFloat(t *testing.T) {
	t.Run("rejects non-finite values", func(tt *testing.T) {
		as := assert.New(tt)
		_, err := sproutbank.AmountFromFloat(math.NaN())
		as.ErrorIs(err, sproutbank.ErrInvalidAmount)
		_, err = sproutbank.AmountFromFloat(math.Inf(1))
		as.ErrorIs(err, sproutbank.ErrInvalidAmount)
		_, err = sproutbank.AmountFromFloat(math.Inf(-1))
		as.ErrorIs(err, sproutbank.ErrInvalidAmount)
	})

	t.Run("accepts ordinary amounts", func(tt *testing.T) {
		as := assert.New(tt)
		d, err := sproutbank.AmountFromFloat(12.34)
		as.Nil(err)
		as.Equal("12.34", d.StringFixed(2))
	})
}

func TestValidRate(t *testing.T) {
	as := assert.New(t)
	as.Nil(sproutbank.ValidRate(decimal.Zero))
	as.Nil(sproutbank.ValidRate(decimal.RequireFromString("0.05")))
	as.ErrorIs(sproutbank.ValidRate(decimal.NewFromInt(-1)), sproutbank.ErrInvalidRate)
}
