package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"krakenbot/config"
	"krakenbot/models"
)

type fakeCandleSource struct {
	env      models.Envelope
	lastPair string
}

func (f *fakeCandleSource) GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope {
	f.lastPair = pair
	return f.env
}

func strategyConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Strategy.LookbackPeriod = 5
	cfg.Strategy.PriceDecimals = 2
	return cfg
}

func candleEnvelope(candles []models.Candle) models.Envelope {
	return models.Envelope{
		Errors: []string{},
		Result: models.Payload{"ohlc_records": candles, "last": int64(0)},
	}
}

func flatCandles(n int, high, low float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{High: high, Low: low, Close: (high + low) / 2}
	}
	return candles
}

func TestGenerateBreakoutProposal(t *testing.T) {
	candles := flatCandles(5, 100, 90)
	candles[2].High = 120 // window extreme
	candles[3].Low = 80
	source := &fakeCandleSource{env: candleEnvelope(candles)}
	g := NewGenerator(strategyConfig(), source)

	p, err := g.GenerateBreakout(context.Background(), "BTC/USD", 60, 0)
	if err != nil {
		t.Fatalf("GenerateBreakout: %v", err)
	}

	if source.lastPair != "BTCUSD" {
		t.Errorf("pair sent to exchange = %q, want BTCUSD", source.lastPair)
	}
	if p.Side != models.SideBuy {
		t.Errorf("side = %s, want buy", p.Side)
	}
	if want := decimal.NewFromFloat(120.12); !p.Entry.Equal(want) {
		t.Errorf("entry = %s, want %s", p.Entry, want)
	}
	if want := decimal.NewFromInt(80); !p.StopLoss.Equal(want) {
		t.Errorf("stop loss = %s, want %s", p.StopLoss, want)
	}

	// Target is always twice the risk above the entry.
	risk := p.Entry.Sub(p.StopLoss)
	if want := p.Entry.Add(risk.Mul(decimal.NewFromInt(2))); !p.TakeProfit.Equal(want) {
		t.Errorf("take profit = %s, want %s", p.TakeProfit, want)
	}
	if !p.StopLoss.LessThan(p.Entry) || !p.Entry.LessThan(p.TakeProfit) {
		t.Errorf("expected stop < entry < target, got %s / %s / %s", p.StopLoss, p.Entry, p.TakeProfit)
	}
	if p.Reasoning == "" {
		t.Error("expected a reasoning string")
	}
}

func TestGenerateBreakoutUsesLookbackWindow(t *testing.T) {
	// The spike sits outside the 5-candle window and must be ignored.
	candles := append([]models.Candle{{High: 500, Low: 10}}, flatCandles(5, 100, 90)...)
	source := &fakeCandleSource{env: candleEnvelope(candles)}
	g := NewGenerator(strategyConfig(), source)

	p, err := g.GenerateBreakout(context.Background(), "ETH/USD", 60, 0)
	if err != nil {
		t.Fatalf("GenerateBreakout: %v", err)
	}
	if want := decimal.NewFromFloat(100.1); !p.Entry.Equal(want) {
		t.Errorf("entry = %s, want %s", p.Entry, want)
	}
}

func TestGenerateBreakoutInsufficientData(t *testing.T) {
	source := &fakeCandleSource{env: candleEnvelope(flatCandles(3, 100, 90))}
	g := NewGenerator(strategyConfig(), source)

	_, err := g.GenerateBreakout(context.Background(), "BTC/USD", 60, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestGenerateBreakoutDegenerateRange(t *testing.T) {
	// High equals low: after rounding the entry buffer vanishes and risk is
	// not positive.
	source := &fakeCandleSource{env: candleEnvelope(flatCandles(5, 0.001, 0.001))}
	g := NewGenerator(strategyConfig(), source)

	_, err := g.GenerateBreakout(context.Background(), "BTC/USD", 60, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestGenerateBreakoutExchangeFailure(t *testing.T) {
	source := &fakeCandleSource{env: models.ErrorEnvelope("EService:Unavailable")}
	g := NewGenerator(strategyConfig(), source)

	_, err := g.GenerateBreakout(context.Background(), "BTC/USD", 60, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrInsufficientData) {
		t.Error("exchange failures should not be classified as insufficient data")
	}
}
