package trading

import (
	"github.com/betbot/gokx/internal/executor"
	"github.com/betbot/gokx/okx/client"
)

// Fan-out constructors: each builds a per-account orchestrator around the
// resolved client so composite workflows run through the executor like any
// plain gateway call.

// OpenPositionOp opens an entry + risk workflow on each account.
func OpenPositionOp(intent OrderIntent, presets []int) executor.Op {
	return executor.NewOp("open_position_with_risk", func(c *client.Client) *client.Response {
		return client.Wrap(New(c, presets).OpenPositionWithRisk(intent))
	})
}

// OpenPositionByPercentageOp sizes from each account's own balance.
func OpenPositionByPercentageOp(intent OrderIntent, percentage int, currentPrice float64, leverage int, presets []int) executor.Op {
	return executor.NewOp("open_position_by_percentage", func(c *client.Client) *client.Response {
		return New(c, presets).OpenPositionByPercentage(intent, percentage, currentPrice, leverage)
	})
}

// PlaceConditionalOrderOp places a trigger order on each account.
func PlaceConditionalOrderOp(intent OrderIntent, triggerPx, orderPx string, presets []int) executor.Op {
	return executor.NewOp("place_conditional_order", func(c *client.Client) *client.Response {
		return New(c, presets).PlaceConditionalOrder(intent, triggerPx, orderPx)
	})
}

// CloseAllPositionsOp liquidates each account's open positions.
func CloseAllPositionsOp(instType string, presets []int) executor.Op {
	return executor.NewOp("close_all_positions", func(c *client.Client) *client.Response {
		return New(c, presets).CloseAllPositions(instType)
	})
}

// PnLSummaryOp aggregates each account's bill stream.
func PnLSummaryOp(q client.HistoryQuery, presets []int) executor.Op {
	return executor.NewOp("get_pnl_summary", func(c *client.Client) *client.Response {
		return New(c, presets).PnLSummary(q)
	})
}
