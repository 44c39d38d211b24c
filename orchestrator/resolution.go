package orchestrator

import (
	"context"
	"encoding/json"

	"krakenbot/models"
)

// Resolution is the typed outcome of the natural-language interpretation
// step. For IntentClarificationNeeded the clarification fields carry the
// original incomplete request so it can be resumed next turn.
type Resolution struct {
	Intent                models.Intent
	Entities              map[string]string
	OriginalMessage       string
	ClarificationIntent   models.Intent
	ClarificationEntities map[string]string
	Question              string
}

// Resolver is the external collaborator that interprets a user message,
// given the user's pending context when one exists.
type Resolver interface {
	Resolve(ctx context.Context, userMessage string, pending *models.PendingEntry) (Resolution, error)
}

// wireResolution mirrors the JSON contract with the intent resolver.
type wireResolution struct {
	Intent                           string            `json:"intent"`
	Entities                         map[string]string `json:"entities"`
	OriginalMessage                  string            `json:"original_message"`
	OriginalIntentForClarification   string            `json:"original_intent_for_clarification"`
	OriginalEntitiesForClarification map[string]string `json:"original_entities_for_clarification"`
	Question                         string            `json:"question"`
}

// DecodeResolution parses the raw resolver output. The producer is
// untrusted: schema violations and unknown intents fail closed to
// IntentUnknown rather than propagating a malformed shape into dispatch.
func DecodeResolution(raw []byte, userMessage string) Resolution {
	fallback := Resolution{
		Intent:          models.IntentUnknown,
		Entities:        map[string]string{},
		OriginalMessage: userMessage,
	}

	var wire wireResolution
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fallback
	}

	intent, ok := models.ParseIntent(wire.Intent)
	if !ok {
		return fallback
	}

	res := Resolution{
		Intent:          intent,
		Entities:        wire.Entities,
		OriginalMessage: wire.OriginalMessage,
		Question:        wire.Question,
	}
	if res.Entities == nil {
		res.Entities = map[string]string{}
	}
	if res.OriginalMessage == "" {
		res.OriginalMessage = userMessage
	}

	if intent == models.IntentClarificationNeeded {
		origIntent, ok := models.ParseIntent(wire.OriginalIntentForClarification)
		if !ok {
			return fallback
		}
		res.ClarificationIntent = origIntent
		res.ClarificationEntities = wire.OriginalEntitiesForClarification
		if res.ClarificationEntities == nil {
			res.ClarificationEntities = map[string]string{}
		}
	}

	return res
}
