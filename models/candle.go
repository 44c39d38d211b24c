package models

import "strconv"

// Candle is a single normalized OHLC record.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	VWAP   float64 `json:"vwap"`
	Volume float64 `json:"volume"`
	Count  int64   `json:"count"`
}

// Ticker carries the subset of Kraken ticker fields the screener and price
// lookups consume. Field tags follow Kraken's wire names.
type Ticker struct {
	LastTrade []string `json:"c"` // [price, lot volume]
	Volume    []string `json:"v"` // [today, last 24h]
	VWAP      []string `json:"p"` // [today, last 24h]
}

// LastPrice returns the most recent trade price, empty when absent.
func (t Ticker) LastPrice() string {
	if len(t.LastTrade) == 0 {
		return ""
	}
	return t.LastTrade[0]
}

// Volume24h returns the rolling 24h base volume.
func (t Ticker) Volume24h() float64 {
	return secondField(t.Volume)
}

// VWAP24h returns the rolling 24h volume-weighted average price.
func (t Ticker) VWAP24h() float64 {
	return secondField(t.VWAP)
}

func secondField(pair []string) float64 {
	if len(pair) < 2 {
		return 0
	}
	f, err := strconv.ParseFloat(pair[1], 64)
	if err != nil {
		return 0
	}
	return f
}

// VolumeEntry is one row of the market volume screen.
type VolumeEntry struct {
	Pair          string  `json:"pair"`
	QuoteVolume   float64 `json:"volume_24h_quote"`
	QuoteCurrency string  `json:"quote_currency"`
}

// MomentumEntry is one row of the momentum screen.
type MomentumEntry struct {
	Pair string  `json:"pair"`
	RSI  float64 `json:"rsi"`
}
