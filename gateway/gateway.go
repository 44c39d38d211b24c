package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"krakenbot/config"
	"krakenbot/kraken"
	"krakenbot/logger"
	"krakenbot/models"
)

const (
	errNotInitialized     = "API client not initialized."
	errUnhandledShape     = "unhandled result shape"
	mockTickerPrice       = "50000.00"
	mockTickerLot         = "0.1"
	defaultMockTickerPair = "XXBTZUSD"
)

// Exchange is the raw SDK surface the gateway drives. The concrete
// implementation is kraken.Client; tests substitute fakes.
type Exchange interface {
	HasCredentials() bool
	Balance(ctx context.Context) (*kraken.Result, error)
	Ticker(ctx context.Context, pair string) (*kraken.Result, error)
	OHLC(ctx context.Context, pair string, interval int, since int64) (*kraken.Result, error)
	AddOrder(ctx context.Context, params kraken.OrderParams) (*kraken.Result, error)
}

// Gateway wraps the raw exchange surface with the shared rate limit, retry
// and backoff policy, and response-shape normalization. Every operation
// returns a models.Envelope and never an error: expected failure modes are
// data, not control flow.
type Gateway struct {
	api         Exchange
	bucket      *TokenBucket
	maxAttempts int
	baseDelay   time.Duration
	callTimeout time.Duration
	log         *logger.Log
}

func New(cfg *config.Config, api Exchange) *Gateway {
	g := &Gateway{
		api:         api,
		bucket:      NewTokenBucket(cfg.Gateway.RateLimit.Capacity, cfg.Gateway.RateLimit.RefillPeriod),
		maxAttempts: cfg.Gateway.Retry.MaxAttempts,
		baseDelay:   cfg.Gateway.Retry.BaseDelay,
		callTimeout: cfg.Gateway.CallTimeout,
		log:         logger.GetLogger(),
	}
	if g.maxAttempts < 1 {
		g.maxAttempts = 1
	}
	g.log.WithComponent("gateway").WithFields(logger.Fields{
		"rate_capacity": cfg.Gateway.RateLimit.Capacity,
		"refill_period": cfg.Gateway.RateLimit.RefillPeriod,
		"max_attempts":  g.maxAttempts,
		"call_timeout":  g.callTimeout,
	}).Info("exchange gateway initialized")
	return g
}

// GetBalance fetches account balances as an asset->amount mapping.
func (g *Gateway) GetBalance(ctx context.Context) models.Envelope {
	if !g.api.HasCredentials() {
		return models.ErrorEnvelope(errNotInitialized)
	}
	return g.call(ctx, "get_balance", g.api.Balance)
}

// GetTicker fetches ticker information for one pair, or for every tradable
// pair when the argument is empty. Without credentials a mock shape is
// returned so read-only price flows stay usable in development.
func (g *Gateway) GetTicker(ctx context.Context, pair string) models.Envelope {
	if !g.api.HasCredentials() {
		g.log.WithComponent("gateway").Warn("no credentials configured, returning mock ticker data")
		mockPair := pair
		if mockPair == "" {
			mockPair = defaultMockTickerPair
		}
		return models.Envelope{
			Errors: []string{},
			Result: models.Payload{mockPair: models.Ticker{LastTrade: []string{mockTickerPrice, mockTickerLot}}},
		}
	}
	return g.call(ctx, "get_ticker", func(ctx context.Context) (*kraken.Result, error) {
		return g.api.Ticker(ctx, pair)
	})
}

// GetOHLC fetches candles for a pair at the given interval in minutes.
func (g *Gateway) GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope {
	if !g.api.HasCredentials() {
		return models.ErrorEnvelope(errNotInitialized)
	}
	return g.call(ctx, "get_ohlc", func(ctx context.Context) (*kraken.Result, error) {
		return g.api.OHLC(ctx, pair, interval, since)
	})
}

// PlaceOrder submits an order.
func (g *Gateway) PlaceOrder(ctx context.Context, params kraken.OrderParams) models.Envelope {
	if !g.api.HasCredentials() {
		return models.ErrorEnvelope(errNotInitialized)
	}
	return g.call(ctx, "place_order", func(ctx context.Context) (*kraken.Result, error) {
		return g.api.AddOrder(ctx, params)
	})
}

// call drives one logical operation through the rate limiter, per-call
// timeout and the retry policy. Transient exchange errors are retried with
// linear backoff; a timeout is retried exactly once; everything else is
// surfaced immediately.
func (g *Gateway) call(ctx context.Context, op string, fn func(context.Context) (*kraken.Result, error)) models.Envelope {
	log := g.log.WithComponent("gateway").WithFields(logger.Fields{"operation": op})

	timeoutRetried := false
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		g.bucket.Acquire(ctx)

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if g.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		}
		res, err := fn(callCtx)
		cancel()

		if err != nil {
			if isTimeout(err) && ctx.Err() == nil {
				if !timeoutRetried {
					timeoutRetried = true
					log.WithError(err).Warn("exchange call timed out, retrying once")
					continue
				}
				log.WithError(err).Error("exchange call timed out twice")
				return models.ErrorEnvelope(fmt.Sprintf("%s timed out", op))
			}
			log.WithError(err).Error("exchange call failed")
			return models.ErrorEnvelope(err.Error())
		}

		if res.Kind == kraken.KindError && Retryable(res.Errors) {
			if attempt < g.maxAttempts {
				delay := g.baseDelay * time.Duration(attempt)
				log.WithFields(logger.Fields{
					"attempt": attempt,
					"delay":   delay,
					"errors":  res.Errors,
				}).Warn("transient exchange error, backing off")
				select {
				case <-ctx.Done():
					return models.ErrorEnvelope(ctx.Err().Error())
				case <-time.After(delay):
				}
				continue
			}
			log.WithFields(logger.Fields{"errors": res.Errors}).Error("transient error persisted through retries")
			return models.Envelope{Errors: res.Errors, Result: models.Payload{}}
		}

		return g.normalize(op, res)
	}
	return models.ErrorEnvelope(fmt.Sprintf("%s failed after %d attempts", op, g.maxAttempts))
}

// normalize converts the SDK's tagged raw result into the canonical
// envelope. The variant must not leak past this point.
func (g *Gateway) normalize(op string, res *kraken.Result) models.Envelope {
	switch res.Kind {
	case kraken.KindError:
		return models.Envelope{Errors: res.Errors, Result: models.Payload{}}

	case kraken.KindRows:
		return models.Envelope{
			Errors: []string{},
			Result: models.Payload{"ohlc_records": res.Rows, "last": res.Last},
		}

	case kraken.KindDoc:
		payload, err := g.decodeDoc(op, res.Doc)
		if err != nil {
			g.log.WithComponent("gateway").WithError(err).WithFields(logger.Fields{"operation": op}).
				Error("unhandled result shape")
			return models.ErrorEnvelope(errUnhandledShape)
		}
		return models.Envelope{Errors: []string{}, Result: payload}

	default:
		g.log.WithComponent("gateway").WithFields(logger.Fields{"operation": op, "kind": res.Kind}).
			Error("unhandled result shape")
		return models.ErrorEnvelope(errUnhandledShape)
	}
}

// decodeDoc maps a keyed-object result into the operation's payload shape.
func (g *Gateway) decodeDoc(op string, doc map[string]json.RawMessage) (models.Payload, error) {
	payload := models.Payload{}
	switch op {
	case "get_balance":
		for asset, raw := range doc {
			var amount string
			if err := json.Unmarshal(raw, &amount); err != nil {
				return nil, fmt.Errorf("balance for %s: %w", asset, err)
			}
			payload[asset] = amount
		}
	case "get_ticker":
		for pair, raw := range doc {
			var t models.Ticker
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, fmt.Errorf("ticker for %s: %w", pair, err)
			}
			payload[pair] = t
		}
	case "place_order":
		for key, raw := range doc {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("order field %s: %w", key, err)
			}
			payload[key] = v
		}
	default:
		return nil, fmt.Errorf("no document mapping for operation %s", op)
	}
	return payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
