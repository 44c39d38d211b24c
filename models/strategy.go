package models

import "github.com/shopspring/decimal"

// Side is the direction of a proposed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// StrategyProposal is a confirmable trade plan. For a buy proposal the
// invariant StopLoss < Entry < TakeProfit holds and the risk-to-reward ratio
// is fixed at 1:2 (TakeProfit - Entry == 2 * (Entry - StopLoss)).
type StrategyProposal struct {
	Pair       string          `json:"pair"`
	Side       Side            `json:"side"`
	Entry      decimal.Decimal `json:"entry"`
	StopLoss   decimal.Decimal `json:"stop_loss"`
	TakeProfit decimal.Decimal `json:"take_profit"`
	Reasoning  string          `json:"reasoning"`
}
