package models

import "strings"

// Payload is an intent- or endpoint-specific result body.
type Payload map[string]any

// Envelope is the canonical shape every exchange call is normalized into.
// A non-empty Errors slice means Result must not be trusted.
type Envelope struct {
	Errors []string `json:"error"`
	Result Payload  `json:"result"`
}

// ErrorEnvelope builds a failed envelope with an empty result.
func ErrorEnvelope(errs ...string) Envelope {
	return Envelope{Errors: errs, Result: Payload{}}
}

// Failed reports whether the exchange call produced any error.
func (e Envelope) Failed() bool {
	return len(e.Errors) > 0
}

// ErrorText joins the error messages for user-facing reporting.
func (e Envelope) ErrorText() string {
	return strings.Join(e.Errors, ", ")
}

// Candles extracts the normalized OHLC rows when present.
func (e Envelope) Candles() ([]Candle, bool) {
	v, ok := e.Result["ohlc_records"]
	if !ok {
		return nil, false
	}
	candles, ok := v.([]Candle)
	return candles, ok
}
