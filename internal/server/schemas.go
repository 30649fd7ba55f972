package server

// Request bodies for the trading endpoints. Field names follow the wire
// contract of the dashboard frontend.

type orderRequest struct {
	AccountNames []string `json:"account_names" binding:"required"`
	InstID       string   `json:"inst_id" binding:"required"`
	Side         string   `json:"side" binding:"required"`
	OrdType      string   `json:"ord_type"`
	Sz           string   `json:"sz"`
	Px           string   `json:"px"`
	TdMode       string   `json:"td_mode"`
	PosSide      string   `json:"pos_side"`
	SlTriggerPx  string   `json:"sl_trigger_px"`
	SlOrdPx      string   `json:"sl_ord_px"`
	TpTriggerPx  string   `json:"tp_trigger_px"`
	TpOrdPx      string   `json:"tp_ord_px"`
	DetachedRisk bool     `json:"detached_risk"`
}

type percentageOrderRequest struct {
	AccountNames []string `json:"account_names" binding:"required"`
	InstID       string   `json:"inst_id" binding:"required"`
	Side         string   `json:"side" binding:"required"`
	Percentage   int      `json:"percentage" binding:"required"`
	CurrentPrice float64  `json:"current_price" binding:"required"`
	Leverage     int      `json:"leverage"`
	OrdType      string   `json:"ord_type"`
	TdMode       string   `json:"td_mode"`
	PosSide      string   `json:"pos_side"`
	SlTriggerPx  string   `json:"sl_trigger_px"`
	TpTriggerPx  string   `json:"tp_trigger_px"`
}

type conditionalOrderRequest struct {
	AccountNames []string `json:"account_names" binding:"required"`
	InstID       string   `json:"inst_id" binding:"required"`
	Side         string   `json:"side" binding:"required"`
	Sz           string   `json:"sz" binding:"required"`
	TriggerPx    string   `json:"trigger_px" binding:"required"`
	OrderPx      string   `json:"order_px"`
	TdMode       string   `json:"td_mode"`
	PosSide      string   `json:"pos_side"`
	SlTriggerPx  string   `json:"sl_trigger_px"`
	TpTriggerPx  string   `json:"tp_trigger_px"`
}

type leverageRequest struct {
	AccountNames []string `json:"account_names" binding:"required"`
	InstID       string   `json:"inst_id" binding:"required"`
	Lever        int      `json:"lever" binding:"required"`
	MgnMode      string   `json:"mgn_mode"`
	PosSide      string   `json:"pos_side"`
}

type cancelOrdersRequest struct {
	AccountNames []string `json:"account_names" binding:"required"`
	InstType     string   `json:"inst_type"`
	InstID       string   `json:"inst_id"`
}

type closePositionsRequest struct {
	AccountNames []string `json:"account_names"`
	InstType     string   `json:"inst_type"`
}

type historyRequest struct {
	AccountNames []string `json:"account_names"`
	InstType     string   `json:"inst_type"`
	InstID       string   `json:"inst_id"`
	Begin        string   `json:"begin"`
	End          string   `json:"end"`
	Limit        int      `json:"limit"`
}

func (r *historyRequest) instTypeOrDefault() string {
	if r.InstType == "" {
		return "SWAP"
	}
	return r.InstType
}
