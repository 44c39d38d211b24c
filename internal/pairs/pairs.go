package pairs

import "strings"

// intervalMinutes maps the interval tokens accepted from the intent resolver
// to Kraken OHLC interval minutes.
var intervalMinutes = map[string]int{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"4h":  240,
	"1d":  1440,
	"1w":  10080,
	"15d": 21600,
}

// DefaultIntervalMinutes is used when the resolver supplies no interval or an
// unrecognized token.
const DefaultIntervalMinutes = 60

// ParseInterval converts an interval token to minutes. Unrecognized tokens
// fall back to the default rather than failing the whole request.
func ParseInterval(token string) int {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return DefaultIntervalMinutes
	}
	if m, ok := intervalMinutes[token]; ok {
		return m
	}
	return DefaultIntervalMinutes
}

// quoteCurrencies are the fiat codes recognised as pair suffixes, checked
// longest-first so e.g. a hypothetical "XAUD" suffix resolves to AUD before
// any shorter candidate.
var quoteCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "CHF", "AUD"}

// QuoteCurrency attributes a quote currency to a pair symbol by longest
// matching fiat suffix, defaulting to USD when nothing matches.
func QuoteCurrency(pair string) string {
	sym := strings.ToUpper(strings.NewReplacer("/", "", "-", "").Replace(pair))
	best := ""
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(sym, q) && len(q) > len(best) {
			best = q
		}
	}
	if best == "" {
		return "USD"
	}
	return best
}

// Normalize converts user-supplied pair spellings to the canonical BASE/QUOTE
// form. A bare asset ("btc") is quoted in USD.
func Normalize(pair string) string {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "-", "/")
	if strings.Contains(p, "/") {
		return p
	}
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(p, q) && len(p) > len(q) {
			return p[:len(p)-len(q)] + "/" + q
		}
	}
	return p + "/USD"
}

// ForAPI converts a canonical pair to the separator-free symbol the Kraken
// REST API expects.
func ForAPI(pair string) string {
	p := strings.ToUpper(strings.TrimSpace(pair))
	p = strings.ReplaceAll(p, "/", "")
	return strings.ReplaceAll(p, "-", "")
}
