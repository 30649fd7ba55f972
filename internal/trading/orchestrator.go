// Package trading builds composite order workflows on top of the gateway
// client: entry orders with attached risk orders, percentage-of-balance
// sizing, whole-portfolio liquidation and bill-based P&L aggregation.
package trading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/gokx/okx/client"
)

var tradeLog = logrus.WithField("component", "trading")

// SettlementCcy is the quote currency used for percentage sizing.
const SettlementCcy = "USDT"

// Orchestrator drives multi-step order workflows for one account.
type Orchestrator struct {
	client  *client.Client
	presets []int
}

// New 创建订单编排器。presets 为空时使用默认档位。
func New(c *client.Client, presets []int) *Orchestrator {
	if len(presets) == 0 {
		presets = []int{10, 20, 25, 33, 50, 66, 100}
	}
	return &Orchestrator{client: c, presets: presets}
}

// OrderIntent describes one entry order plus optional risk parameters.
// Constructed per request, never persisted.
type OrderIntent struct {
	InstID  string
	Side    string // buy or sell
	OrdType string // market, limit, ...
	TdMode  string // cross or isolated
	Sz      string
	Px      string
	PosSide string

	SlTriggerPx string
	SlOrdPx     string
	TpTriggerPx string
	TpOrdPx     string

	// DetachedRisk places SL/TP as separate conditional orders after a
	// successful entry instead of inline bracket fields on the entry itself.
	DetachedRisk bool
}

// CompositeResult carries the three independent exchange responses of an
// entry + risk workflow. There is no atomicity across them: a successful
// entry with a failed stop-loss leaves the position unprotected and is
// surfaced as-is, never rolled back.
type CompositeResult struct {
	MainOrder  *client.Response `json:"main_order"`
	StopLoss   *client.Response `json:"stop_loss"`
	TakeProfit *client.Response `json:"take_profit"`
}

// newClOrdID returns an exchange-safe client order id (32 hex chars).
func newClOrdID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// OpenPositionWithRisk places the entry order and its risk orders.
//
// When triggers are supplied inline (the default) they ride on the entry
// order as bracket fields. With DetachedRisk set, up to two conditional
// orders are placed after a successful entry, each on the position-closing
// side, sized identically, order price "-1" (market) unless given.
func (o *Orchestrator) OpenPositionWithRisk(intent OrderIntent) *CompositeResult {
	result := &CompositeResult{}

	req := client.OrderRequest{
		InstID:  intent.InstID,
		TdMode:  intent.TdMode,
		Side:    intent.Side,
		OrdType: intent.OrdType,
		Sz:      intent.Sz,
		Px:      intent.Px,
		PosSide: intent.PosSide,
		ClOrdID: newClOrdID(),
	}
	if !intent.DetachedRisk {
		req.SlTriggerPx = intent.SlTriggerPx
		req.SlOrdPx = intent.SlOrdPx
		req.TpTriggerPx = intent.TpTriggerPx
		req.TpOrdPx = intent.TpOrdPx
	}

	result.MainOrder = o.client.PlaceOrder(req)

	if !intent.DetachedRisk || !result.MainOrder.IsOK() {
		return result
	}

	closeSide := "sell"
	if intent.Side == "sell" {
		closeSide = "buy"
	}

	if intent.SlTriggerPx != "" {
		orderPx := intent.SlOrdPx
		if orderPx == "" {
			orderPx = "-1"
		}
		result.StopLoss = o.client.PlaceAlgoOrder(client.AlgoOrderRequest{
			InstID:      intent.InstID,
			TdMode:      intent.TdMode,
			Side:        closeSide,
			OrdType:     "conditional",
			Sz:          intent.Sz,
			PosSide:     intent.PosSide,
			SlTriggerPx: intent.SlTriggerPx,
			SlOrdPx:     orderPx,
		})
	}

	if intent.TpTriggerPx != "" {
		orderPx := intent.TpOrdPx
		if orderPx == "" {
			orderPx = "-1"
		}
		result.TakeProfit = o.client.PlaceAlgoOrder(client.AlgoOrderRequest{
			InstID:      intent.InstID,
			TdMode:      intent.TdMode,
			Side:        closeSide,
			OrdType:     "conditional",
			Sz:          intent.Sz,
			PosSide:     intent.PosSide,
			TpTriggerPx: intent.TpTriggerPx,
			TpOrdPx:     orderPx,
		})
	}

	return result
}

// CalculatePositionSize validates the percentage preset and returns the
// slice of balance to commit. Rejected before any network call.
func (o *Orchestrator) CalculatePositionSize(balance float64, percentage int) (float64, error) {
	valid := false
	for _, p := range o.presets {
		if p == percentage {
			valid = true
			break
		}
	}
	if !valid {
		return 0, fmt.Errorf("invalid percentage %d, must be one of %v", percentage, o.presets)
	}
	return balance * float64(percentage) / 100.0, nil
}

// OpenPositionByPercentage sizes the entry from the available settlement
// currency balance: contracts = floor(avail * pct/100 * leverage / price).
// Zero available balance fails fast instead of placing a zero-size order.
func (o *Orchestrator) OpenPositionByPercentage(intent OrderIntent, percentage int, currentPrice float64, leverage int) *client.Response {
	if currentPrice <= 0 {
		return client.Failure("Invalid current price")
	}
	if leverage <= 0 {
		leverage = 1
	}

	balanceResp := o.client.GetBalance("")
	if !balanceResp.IsOK() {
		return balanceResp
	}

	available := availableBalance(balanceResp, SettlementCcy)
	if available == 0 {
		return client.Failure("No available balance")
	}

	positionValue, err := o.CalculatePositionSize(available, percentage)
	if err != nil {
		return client.Failure(err.Error())
	}

	notional := positionValue * float64(leverage)
	contracts := int(math.Floor(notional / currentPrice))
	intent.Sz = strconv.Itoa(contracts)

	tradeLog.Infof("sized %s %s: avail=%.2f pct=%d lever=%d px=%.2f -> %d contracts",
		intent.InstID, intent.Side, available, percentage, leverage, currentPrice, contracts)

	return client.Wrap(o.OpenPositionWithRisk(intent))
}

func availableBalance(resp *client.Response, ccy string) float64 {
	var accounts []client.BalanceAccount
	if err := resp.DataInto(&accounts); err != nil {
		return 0
	}
	for _, acct := range accounts {
		for _, cur := range acct.Details {
			if cur.Ccy == ccy {
				v, err := strconv.ParseFloat(cur.AvailBal, 64)
				if err != nil {
					return 0
				}
				return v
			}
		}
	}
	return 0
}

// PlaceConditionalOrder places a trigger order, optionally with attached
// SL/TP trigger fields (market execution for both).
func (o *Orchestrator) PlaceConditionalOrder(intent OrderIntent, triggerPx, orderPx string) *client.Response {
	if orderPx == "" {
		orderPx = "-1"
	}
	req := client.AlgoOrderRequest{
		InstID:    intent.InstID,
		TdMode:    intent.TdMode,
		Side:      intent.Side,
		OrdType:   "conditional",
		Sz:        intent.Sz,
		PosSide:   intent.PosSide,
		TriggerPx: triggerPx,
		OrderPx:   orderPx,
	}
	if intent.SlTriggerPx != "" {
		req.SlTriggerPx = intent.SlTriggerPx
		req.SlOrdPx = "-1"
	}
	if intent.TpTriggerPx != "" {
		req.TpTriggerPx = intent.TpTriggerPx
		req.TpOrdPx = "-1"
	}
	return o.client.PlaceAlgoOrder(req)
}

// ClosedPosition is one per-position outcome of CloseAllPositions.
type ClosedPosition struct {
	InstID  string `json:"instId"`
	PosSide string `json:"posSide"`
	Size    string `json:"size"`
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message"`
}

// CloseAllResult aggregates per-position close outcomes.
type CloseAllResult struct {
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Results      []ClosedPosition `json:"results"`
}

// CloseAllPositions liquidates every open position of an instrument type
// with reduce-only market orders. One position's failure never blocks the
// remaining positions.
func (o *Orchestrator) CloseAllPositions(instType string) *client.Response {
	positionsResp := o.client.GetPositions(instType, "")
	if !positionsResp.IsOK() {
		return positionsResp
	}

	var positions []client.Position
	if err := positionsResp.DataInto(&positions); err != nil {
		return client.Failure(fmt.Sprintf("Request failed: parse positions: %v", err))
	}

	result := CloseAllResult{Results: []ClosedPosition{}}

	for _, pos := range positions {
		availPos, _ := strconv.ParseFloat(pos.AvailPos, 64)
		if availPos <= 0 {
			continue
		}

		// long -> sell, short -> buy; net mode derives direction from the
		// sign of the raw position quantity.
		var orderSide string
		switch pos.PosSide {
		case "long":
			orderSide = "sell"
		case "short":
			orderSide = "buy"
		default:
			posAmt, _ := strconv.ParseFloat(pos.Pos, 64)
			if posAmt > 0 {
				orderSide = "sell"
			} else {
				orderSide = "buy"
			}
		}

		mgnMode := pos.MgnMode
		if mgnMode == "" {
			mgnMode = "cross"
		}
		req := client.OrderRequest{
			InstID:     pos.InstID,
			TdMode:     mgnMode,
			Side:       orderSide,
			OrdType:    "market",
			Sz:         pos.AvailPos,
			ReduceOnly: "true",
			ClOrdID:    newClOrdID(),
		}
		if pos.PosSide == "long" || pos.PosSide == "short" {
			req.PosSide = pos.PosSide
		}

		closeResp := o.client.PlaceOrder(req)
		entry := ClosedPosition{
			InstID:  pos.InstID,
			PosSide: pos.PosSide,
			Size:    pos.AvailPos,
		}
		if closeResp.IsOK() {
			result.SuccessCount++
			entry.Status = "success"
			entry.Message = "Position closed successfully"
			var acks []client.OrderAck
			if err := closeResp.DataInto(&acks); err == nil && len(acks) > 0 {
				entry.OrderID = acks[0].OrdID
			}
		} else {
			result.FailedCount++
			entry.Status = "failed"
			entry.Message = closeResp.Msg
		}
		result.Results = append(result.Results, entry)
	}

	resp := client.Wrap(result)
	resp.Msg = fmt.Sprintf("Closed %d positions, %d failed", result.SuccessCount, result.FailedCount)
	return resp
}
