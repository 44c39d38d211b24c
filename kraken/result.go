package kraken

import (
	"encoding/json"
	"strconv"

	"krakenbot/models"
)

// Kind discriminates the raw shapes the REST layer can hand back. The
// variant stops at the gateway boundary, which normalizes every kind into a
// models.Envelope.
type Kind int

const (
	// KindError carries only the exchange-reported error list.
	KindError Kind = iota
	// KindDoc is an object keyed by asset or pair symbol (balance, ticker,
	// order placement).
	KindDoc
	// KindRows is tabular OHLC data plus the continuation cursor.
	KindRows
)

// Result is the tagged union produced by every REST call.
type Result struct {
	Kind   Kind
	Errors []string
	Doc    map[string]json.RawMessage
	Rows   []models.Candle
	Last   int64
}

// ErrorResult wraps client-side failures in the same shape the exchange uses.
func ErrorResult(msgs ...string) *Result {
	return &Result{Kind: KindError, Errors: msgs}
}

// apiResponse is the top-level Kraken REST envelope.
type apiResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// decodeDoc parses a keyed-object response body.
func decodeDoc(body []byte) (*Result, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Error) > 0 {
		return &Result{Kind: KindError, Errors: resp.Error}, nil
	}
	doc := make(map[string]json.RawMessage)
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &doc); err != nil {
			return nil, err
		}
	}
	return &Result{Kind: KindDoc, Doc: doc}, nil
}

// decodeOHLC parses an OHLC response body: the result object holds one key of
// tabular rows for the requested pair plus a "last" cursor.
func decodeOHLC(body []byte) (*Result, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Error) > 0 {
		return &Result{Kind: KindError, Errors: resp.Error}, nil
	}
	raw := make(map[string]json.RawMessage)
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &raw); err != nil {
			return nil, err
		}
	}
	out := &Result{Kind: KindRows}
	for key, val := range raw {
		if key == "last" {
			var last json.Number
			if err := json.Unmarshal(val, &last); err == nil {
				out.Last, _ = last.Int64()
			}
			continue
		}
		var rows [][]any
		if err := json.Unmarshal(val, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if len(row) < 8 {
				continue
			}
			out.Rows = append(out.Rows, models.Candle{
				Time:   toInt64(row[0]),
				Open:   toFloat(row[1]),
				High:   toFloat(row[2]),
				Low:    toFloat(row[3]),
				Close:  toFloat(row[4]),
				VWAP:   toFloat(row[5]),
				Volume: toFloat(row[6]),
				Count:  toInt64(row[7]),
			})
		}
	}
	return out, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return int64(f)
	default:
		return 0
	}
}
