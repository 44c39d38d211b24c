package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"krakenbot/config"
	"krakenbot/internal/pairs"
	"krakenbot/logger"
	"krakenbot/models"
)

const dailyIntervalMinutes = 1440

// Markets is the slice of the exchange gateway the screener consumes.
type Markets interface {
	GetTicker(ctx context.Context, pair string) models.Envelope
	GetOHLC(ctx context.Context, pair string, interval int, since int64) models.Envelope
}

// Screener ranks tradable pairs by 24h quote volume and by daily RSI
// momentum.
type Screener struct {
	markets      Markets
	candidates   int
	rsiPeriod    int
	rsiThreshold float64
	log          *logger.Log
}

func NewScreener(cfg *config.Config, markets Markets) *Screener {
	return &Screener{
		markets:      markets,
		candidates:   cfg.Screener.MomentumCandidates,
		rsiPeriod:    cfg.Screener.RSIPeriod,
		rsiThreshold: cfg.Screener.RSIThreshold,
		log:          logger.GetLogger(),
	}
}

// HighVolume ranks every tradable pair by base_volume_24h * vwap_24h,
// descending, truncated to topN. The quote currency is attributed by the
// longest matching fiat suffix, defaulting to USD.
func (s *Screener) HighVolume(ctx context.Context, topN int) ([]models.VolumeEntry, error) {
	env := s.markets.GetTicker(ctx, "")
	if env.Failed() {
		return nil, fmt.Errorf("ticker screen failed: %s", env.ErrorText())
	}

	entries := make([]models.VolumeEntry, 0, len(env.Result))
	for pair, v := range env.Result {
		t, ok := v.(models.Ticker)
		if !ok {
			continue
		}
		quoteVolume := t.Volume24h() * t.VWAP24h()
		if quoteVolume <= 0 {
			continue
		}
		entries = append(entries, models.VolumeEntry{
			Pair:          pair,
			QuoteVolume:   quoteVolume,
			QuoteCurrency: pairs.QuoteCurrency(pair),
		})
	}
	if len(entries) == 0 {
		return nil, errors.New("no ticker data available")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].QuoteVolume > entries[j].QuoteVolume })
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries, nil
}

// Momentum takes the highest-volume candidates, computes RSI over daily
// candles for each concurrently, and keeps entries at or above the
// threshold, descending, truncated to topN. A per-pair failure drops that
// pair from consideration; it never aborts the screen.
func (s *Screener) Momentum(ctx context.Context, topN int) ([]models.MomentumEntry, error) {
	candidates, err := s.HighVolume(ctx, s.candidates)
	if err != nil {
		return nil, err
	}

	log := s.log.WithComponent("screener")
	results := make([]*models.MomentumEntry, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			env := s.markets.GetOHLC(gctx, candidate.Pair, dailyIntervalMinutes, 0)
			if env.Failed() {
				log.WithFields(logger.Fields{"pair": candidate.Pair, "errors": env.Errors}).
					Warn("dropping pair from momentum screen: ohlc fetch failed")
				return nil
			}
			candles, ok := env.Candles()
			if !ok {
				log.WithFields(logger.Fields{"pair": candidate.Pair}).
					Warn("dropping pair from momentum screen: no candle data")
				return nil
			}
			rsi, err := RSI(candles, s.rsiPeriod)
			if err != nil {
				log.WithFields(logger.Fields{"pair": candidate.Pair}).WithError(err).
					Warn("dropping pair from momentum screen")
				return nil
			}
			if rsi >= s.rsiThreshold {
				results[i] = &models.MomentumEntry{Pair: candidate.Pair, RSI: rsi}
			}
			return nil
		})
	}
	// Workers swallow their own failures, so the join only waits.
	_ = g.Wait()

	out := make([]models.MomentumEntry, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RSI > out[j].RSI })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}
