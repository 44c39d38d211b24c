package analysis

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"krakenbot/models"
)

// Closes extracts the close series from a candle window.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// RSI returns the most recent Relative Strength Index value over the candle
// closes. Short history is an expected condition and reported as an error,
// not a panic.
func RSI(candles []models.Candle, period int) (float64, error) {
	if period <= 1 {
		return 0, fmt.Errorf("rsi period must be greater than 1, got %d", period)
	}
	closes := Closes(candles)
	if len(closes) <= period {
		return 0, fmt.Errorf("not enough candles for RSI(%d): have %d", period, len(closes))
	}
	series := talib.Rsi(closes, period)
	latest := series[len(series)-1]
	if math.IsNaN(latest) || math.IsInf(latest, 0) {
		return 0, fmt.Errorf("RSI(%d) produced no finite value", period)
	}
	return latest, nil
}

// SMA returns the most recent Simple Moving Average value over the candle
// closes.
func SMA(candles []models.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("sma period must be greater than 0, got %d", period)
	}
	closes := Closes(candles)
	if len(closes) < period {
		return 0, fmt.Errorf("not enough candles for SMA(%d): have %d", period, len(closes))
	}
	series := talib.Sma(closes, period)
	latest := series[len(series)-1]
	if math.IsNaN(latest) || math.IsInf(latest, 0) {
		return 0, fmt.Errorf("SMA(%d) produced no finite value", period)
	}
	return latest, nil
}
