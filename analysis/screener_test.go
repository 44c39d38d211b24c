package analysis

import (
	"context"
	"testing"

	"krakenbot/config"
	"krakenbot/models"
)

type fakeMarkets struct {
	tickerEnv models.Envelope
	ohlc      map[string]models.Envelope
}

func (f *fakeMarkets) GetTicker(ctx context.Context, pair string) models.Envelope {
	return f.tickerEnv
}

func (f *fakeMarkets) GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope {
	if env, ok := f.ohlc[pair]; ok {
		return env
	}
	return models.ErrorEnvelope("EQuery:Unknown asset pair")
}

func screenerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Screener.MomentumCandidates = 25
	cfg.Screener.RSIPeriod = 14
	cfg.Screener.RSIThreshold = 60
	return cfg
}

func ticker(volume24h, vwap24h string) models.Ticker {
	return models.Ticker{
		Volume: []string{"0", volume24h},
		VWAP:   []string{"0", vwap24h},
	}
}

func risingOHLC(n int) models.Envelope {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{Close: float64(i + 1)}
	}
	return models.Envelope{
		Errors: []string{},
		Result: models.Payload{"ohlc_records": candles, "last": int64(0)},
	}
}

func fallingOHLC(n int) models.Envelope {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{Close: float64(n - i)}
	}
	return models.Envelope{
		Errors: []string{},
		Result: models.Payload{"ohlc_records": candles, "last": int64(0)},
	}
}

func TestHighVolumeRanksByQuoteVolume(t *testing.T) {
	markets := &fakeMarkets{tickerEnv: models.Envelope{
		Errors: []string{},
		Result: models.Payload{
			"XXBTZUSD": ticker("10", "50000"),  // 500000
			"XETHZEUR": ticker("100", "3000"),  // 300000
			"SOLUSD":   ticker("1000", "150"),  // 150000
			"ADAUSD":   ticker("0", "0.5"),     // zero volume, dropped
			"bad":      "not a ticker",         // wrong type, dropped
		},
	}}
	s := NewScreener(screenerConfig(), markets)

	entries, err := s.HighVolume(context.Background(), 2)
	if err != nil {
		t.Fatalf("HighVolume: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Pair != "XXBTZUSD" || entries[1].Pair != "XETHZEUR" {
		t.Errorf("unexpected ranking: %s, %s", entries[0].Pair, entries[1].Pair)
	}
	if entries[0].QuoteVolume != 500000 {
		t.Errorf("quote volume = %v, want 500000", entries[0].QuoteVolume)
	}
	if entries[0].QuoteCurrency != "USD" || entries[1].QuoteCurrency != "EUR" {
		t.Errorf("unexpected quote currencies: %s, %s", entries[0].QuoteCurrency, entries[1].QuoteCurrency)
	}
}

func TestHighVolumeNoData(t *testing.T) {
	markets := &fakeMarkets{tickerEnv: models.Envelope{
		Errors: []string{},
		Result: models.Payload{"ADAUSD": ticker("0", "0")},
	}}
	s := NewScreener(screenerConfig(), markets)

	if _, err := s.HighVolume(context.Background(), 5); err == nil {
		t.Error("expected an error when no pair has volume")
	}
}

func TestHighVolumeTickerFailure(t *testing.T) {
	markets := &fakeMarkets{tickerEnv: models.ErrorEnvelope("EService:Unavailable")}
	s := NewScreener(screenerConfig(), markets)

	if _, err := s.HighVolume(context.Background(), 5); err == nil {
		t.Error("expected the ticker failure to propagate")
	}
}

func TestMomentumFiltersAndRanks(t *testing.T) {
	markets := &fakeMarkets{
		tickerEnv: models.Envelope{
			Errors: []string{},
			Result: models.Payload{
				"XXBTZUSD": ticker("10", "50000"),
				"XETHZUSD": ticker("100", "3000"),
				"SOLUSD":   ticker("1000", "150"),
			},
		},
		ohlc: map[string]models.Envelope{
			"XXBTZUSD": risingOHLC(30),  // RSI 100, kept
			"XETHZUSD": fallingOHLC(30), // RSI 0, filtered out
			// SOLUSD has no OHLC data and is dropped, not fatal.
		},
	}
	s := NewScreener(screenerConfig(), markets)

	entries, err := s.Momentum(context.Background(), 5)
	if err != nil {
		t.Fatalf("Momentum: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1: %+v", len(entries), entries)
	}
	if entries[0].Pair != "XXBTZUSD" {
		t.Errorf("pair = %s, want XXBTZUSD", entries[0].Pair)
	}
	if entries[0].RSI < 60 {
		t.Errorf("RSI = %v, expected at or above the threshold", entries[0].RSI)
	}
}

func TestMomentumPropagatesCandidateFailure(t *testing.T) {
	markets := &fakeMarkets{tickerEnv: models.ErrorEnvelope("EService:Unavailable")}
	s := NewScreener(screenerConfig(), markets)

	if _, err := s.Momentum(context.Background(), 5); err == nil {
		t.Error("expected the candidate screen failure to propagate")
	}
}

func TestMomentumTruncatesToTopN(t *testing.T) {
	markets := &fakeMarkets{
		tickerEnv: models.Envelope{
			Errors: []string{},
			Result: models.Payload{
				"AUSD": ticker("3", "100"),
				"BUSD": ticker("2", "100"),
				"CUSD": ticker("1", "100"),
			},
		},
		ohlc: map[string]models.Envelope{
			"AUSD": risingOHLC(30),
			"BUSD": risingOHLC(30),
			"CUSD": risingOHLC(30),
		},
	}
	s := NewScreener(screenerConfig(), markets)

	entries, err := s.Momentum(context.Background(), 2)
	if err != nil {
		t.Fatalf("Momentum: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}
