package strategy

import (
	"context"
	"fmt"

	"krakenbot/gateway"
	"krakenbot/internal/pairs"
	"krakenbot/kraken"
	"krakenbot/logger"
	"krakenbot/models"
)

// OrderPlacer is the slice of the exchange gateway the trader consumes.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, params kraken.OrderParams) models.Envelope
}

// Trader turns a confirmed proposal into a live order. The stop-loss rides
// along as a conditional close on the entry order, so entry and protection
// go out in a single round-trip instead of a separate OCO pair.
type Trader struct {
	orders OrderPlacer
	sizer  Sizer
	log    *logger.Log
}

func NewTrader(orders OrderPlacer, sizer Sizer) *Trader {
	return &Trader{
		orders: orders,
		sizer:  sizer,
		log:    logger.GetLogger(),
	}
}

// Execute sizes and places the order for a confirmed proposal.
func (t *Trader) Execute(ctx context.Context, p models.StrategyProposal) models.Envelope {
	volume, err := t.sizer.Volume(p)
	if err != nil {
		return models.ErrorEnvelope(err.Error())
	}

	params := kraken.OrderParams{
		Pair:           pairs.ForAPI(p.Pair),
		Side:           string(p.Side),
		OrderType:      "limit",
		Volume:         volume.String(),
		Price:          p.Entry.String(),
		CloseOrderType: "stop-loss",
		ClosePrice:     p.StopLoss.String(),
	}

	t.log.WithComponent("trader").WithFields(logger.Fields{
		"pair":       p.Pair,
		"side":       p.Side,
		"volume":     params.Volume,
		"entry":      params.Price,
		"stop_loss":  params.ClosePrice,
		"order_type": params.OrderType,
	}).Info("placing order")

	env := t.orders.PlaceOrder(ctx, params)
	if env.Failed() && gateway.IsMinSizeRejection(env.Errors) {
		return models.ErrorEnvelope(fmt.Sprintf(
			"the computed volume %s for %s is below the exchange's minimum order size; increase the notional size and try again",
			volume, p.Pair))
	}
	return env
}
