package strategy

import (
	"errors"

	"github.com/shopspring/decimal"

	"krakenbot/models"
)

// volumeDecimals matches Kraken's maximum order volume precision.
const volumeDecimals = 8

// Sizer converts a confirmed proposal into an order volume. It is a
// pluggable policy: the default fixed-notional rule is a placeholder, not a
// risk model.
type Sizer interface {
	Volume(p models.StrategyProposal) (decimal.Decimal, error)
}

// FixedNotional sizes every order to a constant quote-currency amount.
type FixedNotional struct {
	Notional decimal.Decimal
}

func NewFixedNotional(usd float64) FixedNotional {
	return FixedNotional{Notional: decimal.NewFromFloat(usd)}
}

func (s FixedNotional) Volume(p models.StrategyProposal) (decimal.Decimal, error) {
	if p.Entry.Sign() <= 0 {
		return decimal.Zero, errors.New("entry price must be positive")
	}
	return s.Notional.DivRound(p.Entry, volumeDecimals), nil
}
