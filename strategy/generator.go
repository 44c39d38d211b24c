package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"krakenbot/config"
	"krakenbot/internal/pairs"
	"krakenbot/logger"
	"krakenbot/models"
)

// ErrInsufficientData marks the expected failure mode of a strategy request
// against a pair with too little history.
var ErrInsufficientData = errors.New("insufficient data")

// CandleSource is the slice of the exchange gateway the generator consumes.
type CandleSource interface {
	GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope
}

// Generator derives breakout trade proposals from recent price extremes.
type Generator struct {
	source   CandleSource
	lookback int
	decimals int32
	log      *logger.Log
}

func NewGenerator(cfg *config.Config, source CandleSource) *Generator {
	return &Generator{
		source:   source,
		lookback: cfg.Strategy.LookbackPeriod,
		decimals: cfg.Strategy.PriceDecimals,
		log:      logger.GetLogger(),
	}
}

// GenerateBreakout proposes a long entry just above the highest high of the
// lookback window, with the stop at the window's low and the target at twice
// the risk. Prices are rounded to the instrument's display precision.
func (g *Generator) GenerateBreakout(ctx context.Context, pair string, intervalMinutes, lookback int) (models.StrategyProposal, error) {
	var zero models.StrategyProposal
	if lookback <= 0 {
		lookback = g.lookback
	}

	env := g.source.GetOHLC(ctx, pairs.ForAPI(pair), intervalMinutes, 0)
	if env.Failed() {
		return zero, fmt.Errorf("could not fetch OHLC data for %s: %s", pair, env.ErrorText())
	}
	candles, ok := env.Candles()
	if !ok || len(candles) < lookback {
		return zero, fmt.Errorf("%w: need %d candles for %s, have %d", ErrInsufficientData, lookback, pair, len(candles))
	}

	window := candles[len(candles)-lookback:]
	highestHigh := window[0].High
	recentLow := window[0].Low
	for _, c := range window[1:] {
		if c.High > highestHigh {
			highestHigh = c.High
		}
		if c.Low < recentLow {
			recentLow = c.Low
		}
	}

	// Entry sits a small buffer above the breakout level so the order only
	// triggers on a genuine break.
	entry := decimal.NewFromFloat(highestHigh * 1.001).Round(g.decimals)
	stopLoss := decimal.NewFromFloat(recentLow).Round(g.decimals)

	risk := entry.Sub(stopLoss)
	if risk.Sign() <= 0 {
		return zero, fmt.Errorf("%w: degenerate range for %s (entry %s, stop %s)",
			ErrInsufficientData, pair, entry, stopLoss)
	}
	takeProfit := entry.Add(risk.Mul(decimal.NewFromInt(2)))

	proposal := models.StrategyProposal{
		Pair:       pair,
		Side:       models.SideBuy,
		Entry:      entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Reasoning: fmt.Sprintf("Breakout above the %d-candle high %s; stop at the recent low %s, target at 1:2 risk-reward.",
			lookback, entry, stopLoss),
	}

	g.log.WithComponent("strategy").WithFields(logger.Fields{
		"pair":        pair,
		"interval":    intervalMinutes,
		"lookback":    lookback,
		"entry":       entry.String(),
		"stop_loss":   stopLoss.String(),
		"take_profit": takeProfit.String(),
	}).Info("generated breakout proposal")

	return proposal, nil
}
