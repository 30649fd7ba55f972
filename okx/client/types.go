package client

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Response 是交易所统一返回包络 {code, msg, data}。
// code "0" 表示成功；传输层失败也会被归一化成这个形状（code "-1"），
// 上层只需检查 code，无需区分网络错误和业务错误。
type Response struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// IsOK reports whether the exchange accepted the request.
func (r *Response) IsOK() bool {
	return r != nil && r.Code == "0"
}

// DataInto unmarshals the data payload into v.
func (r *Response) DataInto(v any) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Failure builds the normalized failure envelope.
func Failure(msg string) *Response {
	return &Response{Code: "-1", Msg: msg, Data: json.RawMessage("[]")}
}

func failure(msg string) *Response { return Failure(msg) }

// Wrap packs an arbitrary payload into a success envelope so compound
// results flow through the same {code,msg,data} shape as raw exchange calls.
func Wrap(data any) *Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("Request failed: marshal result: %v", err))
	}
	return &Response{Code: "0", Msg: "Success", Data: raw}
}

// BalanceAccount is one entry of the balance payload.
type BalanceAccount struct {
	TotalEq string            `json:"totalEq"`
	Details []BalanceCurrency `json:"details"`
}

// BalanceCurrency is a per-currency balance detail.
type BalanceCurrency struct {
	Ccy      string `json:"ccy"`
	AvailBal string `json:"availBal"`
	CashBal  string `json:"cashBal"`
	Eq       string `json:"eq"`
}

// Position is an exchange-reported position snapshot. Never cached beyond
// the request that fetched it.
type Position struct {
	InstID   string `json:"instId"`
	PosSide  string `json:"posSide"` // long, short or net
	Pos      string `json:"pos"`     // signed in net mode
	AvailPos string `json:"availPos"`
	MgnMode  string `json:"mgnMode"`
	AvgPx    string `json:"avgPx"`
	Upl      string `json:"upl"`
}

// OrderAck is one entry of an order placement/cancel response.
type OrderAck struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	AlgoID  string `json:"algoId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// PendingOrder is one entry of the pending orders list.
type PendingOrder struct {
	InstID  string `json:"instId"`
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	Px      string `json:"px"`
}

// AlgoOrder is one entry of the pending algo orders list.
type AlgoOrder struct {
	AlgoID    string `json:"algoId"`
	InstID    string `json:"instId"`
	Side      string `json:"side"`
	OrdType   string `json:"ordType"`
	Sz        string `json:"sz"`
	TriggerPx string `json:"triggerPx"`
}

// Bill is an exchange ledger entry recording a balance-affecting event.
type Bill struct {
	Type    string `json:"type"` // 2 trade, 7 interest, 8 funding fee
	SubType string `json:"subType"`
	InstID  string `json:"instId"`
	PnL     string `json:"pnl"`
	Fee     string `json:"fee"`
	BalChg  string `json:"balChg"`
	Ts      string `json:"ts"`
	Px      string `json:"px"`
	Sz      string `json:"sz"`
}

// Ticker is the market ticker payload.
type Ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	AskPx  string `json:"askPx"`
	BidPx  string `json:"bidPx"`
	Ts     string `json:"ts"`
}

// OrderRequest are the place-order parameters. Optional fields carry
// omitempty: the exchange treats key presence as meaningful (e.g. reduceOnly),
// so unset fields must not be transmitted at all.
type OrderRequest struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"` // cross or isolated
	Side       string `json:"side"`   // buy or sell
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	Px         string `json:"px,omitempty"`
	PosSide    string `json:"posSide,omitempty"`
	ClOrdID    string `json:"clOrdId,omitempty"`
	ReduceOnly string `json:"reduceOnly,omitempty"` // "true" when set

	// Inline bracket fields: SL/TP attached to the entry order itself.
	SlTriggerPx string `json:"slTriggerPx,omitempty"`
	SlOrdPx     string `json:"slOrdPx,omitempty"`
	TpTriggerPx string `json:"tpTriggerPx,omitempty"`
	TpOrdPx     string `json:"tpOrdPx,omitempty"`
}

// AlgoOrderRequest are the algo (conditional) order parameters.
type AlgoOrderRequest struct {
	InstID    string `json:"instId"`
	TdMode    string `json:"tdMode"`
	Side      string `json:"side"`
	OrdType   string `json:"ordType"` // conditional, oco, trigger, ...
	Sz        string `json:"sz"`
	PosSide   string `json:"posSide,omitempty"`
	TriggerPx string `json:"triggerPx,omitempty"`
	OrderPx   string `json:"orderPx,omitempty"` // "-1" = market

	SlTriggerPx string `json:"slTriggerPx,omitempty"`
	SlOrdPx     string `json:"slOrdPx,omitempty"`
	TpTriggerPx string `json:"tpTriggerPx,omitempty"`
	TpOrdPx     string `json:"tpOrdPx,omitempty"`
}

// CancelAlgoItem identifies one algo order in a batch cancel.
type CancelAlgoItem struct {
	AlgoID string `json:"algoId"`
	InstID string `json:"instId"`
}

// HistoryQuery bounds history/fills/bills queries. Limit is passed through
// unvalidated; the exchange caps it at 100 and surfaces its own error.
type HistoryQuery struct {
	InstType string
	InstID   string
	Begin    string
	End      string
	Limit    int
}

func (q HistoryQuery) limitParam() string {
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	return strconv.Itoa(limit)
}

// CancelAllResult collects every cancel attempt of a compound cancel-all.
type CancelAllResult struct {
	RegularOrders []*Response `json:"regular_orders"`
	AlgoOrders    []*Response `json:"algo_orders"`
}
