package models

// PendingKind discriminates the pending-entry union.
type PendingKind string

const (
	PendingClarification PendingKind = "clarification"
	PendingProposedTrade PendingKind = "proposed_trade"
)

// PendingEntry is the volatile per-user follow-up expectation: either a
// clarification context carrying the original incomplete request, or a
// proposed-but-unconfirmed trade. At most one entry exists per user; a new
// entry silently overwrites an unconsumed one.
type PendingEntry struct {
	Kind             PendingKind
	OriginalIntent   Intent
	OriginalEntities map[string]string
	Proposal         *StrategyProposal
}

// NewClarification records an incomplete request awaiting a follow-up answer.
func NewClarification(intent Intent, entities map[string]string) PendingEntry {
	return PendingEntry{
		Kind:             PendingClarification,
		OriginalIntent:   intent,
		OriginalEntities: entities,
	}
}

// NewProposedTrade records a strategy proposal awaiting explicit confirmation.
func NewProposedTrade(p StrategyProposal) PendingEntry {
	return PendingEntry{
		Kind:     PendingProposedTrade,
		Proposal: &p,
	}
}
