package orchestrator

import (
	"context"
	"strings"

	"krakenbot/internal/pairs"
	"krakenbot/models"
)

// KeywordResolver is a rule-based fallback for the external language-model
// resolver. It understands just enough phrasing to drive the console session
// and the tests; anything unmatched resolves to IntentUnknown.
type KeywordResolver struct{}

func (KeywordResolver) Resolve(_ context.Context, userMessage string, pending *models.PendingEntry) (Resolution, error) {
	msg := strings.ToLower(strings.TrimSpace(userMessage))
	res := Resolution{
		Intent:          models.IntentUnknown,
		Entities:        map[string]string{},
		OriginalMessage: userMessage,
	}

	if pending != nil && pending.Kind == models.PendingProposedTrade {
		switch msg {
		case "yes", "y", "confirm", "ok", "do it":
			res.Intent = models.IntentConfirmAction
			return res, nil
		case "no", "n", "cancel", "stop":
			res.Intent = models.IntentCancelAction
			return res, nil
		}
	}

	switch {
	case strings.Contains(msg, "balance"):
		res.Intent = models.IntentGetBalance
	case strings.Contains(msg, "price of "):
		res.Intent = models.IntentGetTickerPrice
		res.Entities["pair"] = pairs.Normalize(after(msg, "price of "))
	case strings.Contains(msg, "sma of "):
		res.Intent = models.IntentGetSMA
		res.Entities["pair"] = pairs.Normalize(after(msg, "sma of "))
	case strings.Contains(msg, "ohlc for "):
		res.Intent = models.IntentGetOHLC
		res.Entities["pair"] = pairs.Normalize(after(msg, "ohlc for "))
	case strings.Contains(msg, "momentum"):
		res.Intent = models.IntentScreenMomentum
	case strings.Contains(msg, "screen") || strings.Contains(msg, "top volume"):
		res.Intent = models.IntentScreenMarket
	case strings.Contains(msg, "find") && strings.Contains(msg, "trade"):
		res.Intent = models.IntentFindAndGenerateStrategy
	case strings.Contains(msg, "strategy for "):
		res.Intent = models.IntentGenerateStrategy
		res.Entities["pair"] = pairs.Normalize(after(msg, "strategy for "))
	case strings.Contains(msg, "help") || msg == "start" || msg == "/start":
		res.Intent = models.IntentGetHelp
	case msg == "cancel":
		res.Intent = models.IntentCancelAction
	}

	return res, nil
}

// after returns the trimmed remainder of msg past the first occurrence of
// marker, cut at the next sentence boundary.
func after(msg, marker string) string {
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(msg[idx+len(marker):])
	if cut := strings.IndexAny(rest, " ?.,!"); cut > 0 {
		rest = rest[:cut]
	}
	return rest
}
