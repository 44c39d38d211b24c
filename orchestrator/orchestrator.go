package orchestrator

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"krakenbot/analysis"
	"krakenbot/config"
	"krakenbot/internal/pairs"
	"krakenbot/internal/pending"
	"krakenbot/logger"
	"krakenbot/models"
)

// Exchange is the slice of the gateway the dispatcher calls directly.
// Order placement goes through the Trader instead.
type Exchange interface {
	GetBalance(ctx context.Context) models.Envelope
	GetTicker(ctx context.Context, pair string) models.Envelope
	GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope
}

// MarketScreener ranks pairs by volume and momentum.
type MarketScreener interface {
	HighVolume(ctx context.Context, topN int) ([]models.VolumeEntry, error)
	Momentum(ctx context.Context, topN int) ([]models.MomentumEntry, error)
}

// ProposalGenerator derives confirmable trade proposals.
type ProposalGenerator interface {
	GenerateBreakout(ctx context.Context, pair string, intervalMinutes, lookback int) (models.StrategyProposal, error)
}

// ProposalTrader executes a confirmed proposal.
type ProposalTrader interface {
	Execute(ctx context.Context, p models.StrategyProposal) models.Envelope
}

// Orchestrator runs one conversational turn: it reads and clears the user's
// pending context, hands the message with that context to the resolver, and
// dispatches the resolved intent to the owning component. Every turn
// completes with a renderable ActionResult; failures are data, never
// propagated errors.
type Orchestrator struct {
	resolver  Resolver
	exchange  Exchange
	screener  MarketScreener
	generator ProposalGenerator
	trader    ProposalTrader
	store     *pending.Store
	log       *logger.Log

	topN            int
	momentumTopN    int
	defaultInterval int
	defaultSMA      int

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func New(cfg *config.Config, resolver Resolver, exchange Exchange, screener MarketScreener,
	generator ProposalGenerator, trader ProposalTrader, store *pending.Store) *Orchestrator {
	o := &Orchestrator{
		resolver:        resolver,
		exchange:        exchange,
		screener:        screener,
		generator:       generator,
		trader:          trader,
		store:           store,
		log:             logger.GetLogger(),
		topN:            cfg.Screener.TopN,
		momentumTopN:    cfg.Screener.MomentumTopN,
		defaultInterval: cfg.Strategy.IntervalMinutes,
		defaultSMA:      20,
		userLocks:       make(map[string]*sync.Mutex),
	}
	o.log.WithComponent("orchestrator").Info("orchestrator initialized")
	return o
}

// HandleMessage processes one inbound user message and always returns a
// renderable result. Turns from the same user are serialized so the
// read-once pending context cannot be lost to a racing sibling turn.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, message string) (result models.ActionResult) {
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	turnID := uuid.NewString()
	log := o.log.WithComponent("orchestrator").WithFields(logger.Fields{
		"turn_id": turnID,
		"user_id": userID,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{"panic": r}).Error("recovered panic while handling turn")
			result = models.Fail(models.IntentUnknown, map[string]string{}, message,
				"Something went wrong while handling your request. Please try again.")
		}
		log.WithFields(logger.Fields{
			"intent": result.Intent,
			"status": result.Status,
		}).Info("turn handled")
		log.Count("orchestrator", "turns_handled", 1, logger.Fields{"intent": string(result.Intent)})
	}()

	var pendingCtx *models.PendingEntry
	if entry, ok := o.store.Take(userID); ok {
		pendingCtx = &entry
		log.WithFields(logger.Fields{"pending_kind": entry.Kind}).Debug("consumed pending entry")
	}

	res, err := o.resolver.Resolve(ctx, message, pendingCtx)
	if err != nil {
		log.WithError(err).Warn("intent resolution failed, treating as unknown")
		res = Resolution{Intent: models.IntentUnknown, Entities: map[string]string{}, OriginalMessage: message}
	}
	if _, ok := models.ParseIntent(string(res.Intent)); !ok {
		res = Resolution{Intent: models.IntentUnknown, Entities: map[string]string{}, OriginalMessage: message}
	}
	if res.Entities == nil {
		res.Entities = map[string]string{}
	}

	return o.dispatch(ctx, userID, res, pendingCtx)
}

// dispatch maps a resolved intent to its side-effecting operation.
func (o *Orchestrator) dispatch(ctx context.Context, userID string, res Resolution, pendingCtx *models.PendingEntry) models.ActionResult {
	intent, entities, original := res.Intent, res.Entities, res.OriginalMessage

	switch intent {
	case models.IntentGetBalance:
		env := o.exchange.GetBalance(ctx)
		if env.Failed() {
			return models.Fail(intent, entities, original, "Failed to retrieve balance: %s", env.ErrorText())
		}
		return models.Succeed(intent, entities, original, env.Result)

	case models.IntentGetTickerPrice:
		pair := entities["pair"]
		if pair == "" {
			return models.Fail(intent, entities, original, "Trading pair not specified for getting price.")
		}
		env := o.exchange.GetTicker(ctx, pairs.ForAPI(pair))
		if env.Failed() {
			return models.Fail(intent, entities, original, "Failed to retrieve price for %s: %s", pair, env.ErrorText())
		}
		for _, v := range env.Result {
			t, ok := v.(models.Ticker)
			if !ok {
				continue
			}
			if price := t.LastPrice(); price != "" {
				return models.Succeed(intent, entities, original, models.Payload{
					"pair":             pair,
					"last_trade_price": price,
				})
			}
		}
		return models.Fail(intent, entities, original, "Price information not found for %s.", pair)

	case models.IntentGetOHLC:
		pair := entities["pair"]
		if pair == "" {
			return models.Fail(intent, entities, original, "Trading pair not specified for OHLC data.")
		}
		interval := pairs.ParseInterval(entities["interval"])
		env := o.exchange.GetOHLC(ctx, pairs.ForAPI(pair), interval, 0)
		if env.Failed() {
			return models.Fail(intent, entities, original, "Failed to retrieve OHLC data for %s: %s", pair, env.ErrorText())
		}
		return models.Succeed(intent, entities, original, env.Result)

	case models.IntentGetSMA:
		pair := entities["pair"]
		if pair == "" {
			return models.Fail(intent, entities, original, "Trading pair not specified for SMA.")
		}
		period := o.defaultSMA
		if raw := entities["period"]; raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return models.Fail(intent, entities, original, "Invalid SMA period %q.", raw)
			}
			period = parsed
		}
		interval := pairs.ParseInterval(entities["interval"])
		env := o.exchange.GetOHLC(ctx, pairs.ForAPI(pair), interval, 0)
		if env.Failed() {
			return models.Fail(intent, entities, original, "Failed to retrieve OHLC data for %s: %s", pair, env.ErrorText())
		}
		candles, ok := env.Candles()
		if !ok {
			return models.Fail(intent, entities, original, "No candle data available for %s.", pair)
		}
		sma, err := analysis.SMA(candles, period)
		if err != nil {
			return models.Fail(intent, entities, original, "Could not compute SMA for %s: %s", pair, err)
		}
		return models.Succeed(intent, entities, original, models.Payload{
			"pair":      pair,
			"interval":  interval,
			"period":    period,
			"sma_value": sma,
		})

	case models.IntentScreenMarket:
		entries, err := o.screener.HighVolume(ctx, o.topN)
		if err != nil {
			return models.Fail(intent, entities, original, "Market screening failed: %s", err)
		}
		return models.Succeed(intent, entities, original, entries)

	case models.IntentScreenMomentum:
		entries, err := o.screener.Momentum(ctx, o.momentumTopN)
		if err != nil {
			return models.Fail(intent, entities, original, "Momentum screening failed: %s", err)
		}
		return models.Succeed(intent, entities, original, entries)

	case models.IntentGenerateStrategy:
		pair := entities["pair"]
		if pair == "" {
			return models.Fail(intent, entities, original, "Trading pair not specified for strategy generation.")
		}
		interval := o.defaultInterval
		if raw := entities["interval"]; raw != "" {
			interval = pairs.ParseInterval(raw)
		}
		proposal, err := o.generator.GenerateBreakout(ctx, pair, interval, 0)
		if err != nil {
			return models.Fail(intent, entities, original, "%s", err)
		}
		o.store.Put(userID, models.NewProposedTrade(proposal))
		return models.Succeed(intent, entities, original, proposal)

	case models.IntentFindAndGenerateStrategy:
		entries, err := o.screener.Momentum(ctx, o.momentumTopN)
		if err != nil {
			return models.Fail(intent, entities, original, "Momentum screening failed: %s", err)
		}
		if len(entries) == 0 {
			return models.Fail(intent, entities, original, "no momentum candidates")
		}
		top := entries[0]
		proposal, err := o.generator.GenerateBreakout(ctx, top.Pair, o.defaultInterval, 0)
		if err != nil {
			return models.Fail(intent, entities, original, "%s", err)
		}
		o.store.Put(userID, models.NewProposedTrade(proposal))
		return models.Succeed(intent, entities, original, proposal)

	case models.IntentConfirmAction:
		if pendingCtx == nil || pendingCtx.Kind != models.PendingProposedTrade || pendingCtx.Proposal == nil {
			return models.Fail(intent, entities, original, "no pending action")
		}
		env := o.trader.Execute(ctx, *pendingCtx.Proposal)
		if env.Failed() {
			return models.Fail(intent, entities, original, "%s", env.ErrorText())
		}
		return models.Succeed(intent, entities, original, env.Result)

	case models.IntentCancelAction:
		if pendingCtx == nil {
			return models.Fail(intent, entities, original, "nothing to cancel")
		}
		// Take already removed the entry; acknowledging is all that is left.
		return models.Succeed(intent, entities, original, "Cancelled. Nothing was executed.")

	case models.IntentGetHelp:
		return models.Succeed(intent, entities, original, helpText)

	case models.IntentClarificationNeeded:
		o.store.Put(userID, models.NewClarification(res.ClarificationIntent, res.ClarificationEntities))
		question := res.Question
		if question == "" {
			question = "Could you share the missing details so I can continue?"
		}
		return models.Succeed(intent, entities, original, question)

	default:
		return models.Succeed(intent, entities, original,
			"I received your message: '"+original+"', but I'm not sure how to help with that yet.")
	}
}

// userLock returns the per-user serialization mutex, creating it on first
// use.
func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		o.userLocks[userID] = lock
	}
	return lock
}

const helpText = `I am your Kraken trading partner. I can:
- show your account balance ("what's my balance")
- look up prices ("price of BTC/USD")
- fetch OHLC data and moving averages ("sma of ETH/USD")
- screen the market by volume ("screen the market") or momentum ("momentum scan")
- generate a breakout strategy ("strategy for BTC/USD") or find one for you ("find me a trade")
- place a proposed trade once you confirm it ("yes" / "no")`
