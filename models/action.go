package models

import "fmt"

// Intent classifies the purpose of a user message. The set is closed; any
// value produced by the intent resolver that is not listed here must be
// treated as IntentUnknown.
type Intent string

const (
	IntentGetBalance              Intent = "get_balance"
	IntentGetTickerPrice          Intent = "get_ticker_price"
	IntentGetOHLC                 Intent = "get_ohlc"
	IntentGetSMA                  Intent = "get_sma"
	IntentScreenMarket            Intent = "screen_market"
	IntentScreenMomentum          Intent = "screen_momentum"
	IntentGenerateStrategy        Intent = "generate_strategy"
	IntentFindAndGenerateStrategy Intent = "find_and_generate_strategy"
	IntentConfirmAction           Intent = "confirm_action"
	IntentCancelAction            Intent = "cancel_action"
	IntentGetHelp                 Intent = "get_help"
	IntentClarificationNeeded     Intent = "clarification_needed"
	IntentUnknown                 Intent = "unknown"
)

var knownIntents = map[Intent]struct{}{
	IntentGetBalance:              {},
	IntentGetTickerPrice:          {},
	IntentGetOHLC:                 {},
	IntentGetSMA:                  {},
	IntentScreenMarket:            {},
	IntentScreenMomentum:          {},
	IntentGenerateStrategy:        {},
	IntentFindAndGenerateStrategy: {},
	IntentConfirmAction:           {},
	IntentCancelAction:            {},
	IntentGetHelp:                 {},
	IntentClarificationNeeded:     {},
	IntentUnknown:                 {},
}

// ParseIntent validates membership in the closed intent set.
func ParseIntent(s string) (Intent, bool) {
	in := Intent(s)
	_, ok := knownIntents[in]
	return in, ok
}

// Status reports whether a dispatched action completed.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ActionResult is the contract between the orchestrator and the external
// response renderer. When Status is StatusError, Data is always a
// human-readable string, never a structured payload.
type ActionResult struct {
	Status          Status            `json:"status"`
	Data            any               `json:"data"`
	Intent          Intent            `json:"intent"`
	Entities        map[string]string `json:"entities"`
	OriginalMessage string            `json:"original_message"`
}

// Succeed builds a success result carrying an intent-specific payload.
func Succeed(intent Intent, entities map[string]string, original string, data any) ActionResult {
	return ActionResult{
		Status:          StatusSuccess,
		Data:            data,
		Intent:          intent,
		Entities:        entities,
		OriginalMessage: original,
	}
}

// Fail builds an error result. The message is the user-facing explanation.
func Fail(intent Intent, entities map[string]string, original, format string, args ...any) ActionResult {
	return ActionResult{
		Status:          StatusError,
		Data:            fmt.Sprintf(format, args...),
		Intent:          intent,
		Entities:        entities,
		OriginalMessage: original,
	}
}
