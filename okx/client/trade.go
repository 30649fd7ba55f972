package client

// PlaceOrder 下单。可选字段未设置时完全不发送（见 OrderRequest）。
func (c *Client) PlaceOrder(req OrderRequest) *Response {
	return c.post(EndpointPlaceOrder, req)
}

// PlaceAlgoOrder 下条件单（计划委托），用于止损/止盈
func (c *Client) PlaceAlgoOrder(req AlgoOrderRequest) *Response {
	return c.post(EndpointPlaceAlgoOrder, req)
}

// CancelOrder 撤单，ordID 与 clOrdID 至少提供一个
func (c *Client) CancelOrder(instID, ordID, clOrdID string) *Response {
	body := map[string]string{"instId": instID}
	if ordID != "" {
		body["ordId"] = ordID
	}
	if clOrdID != "" {
		body["clOrdId"] = clOrdID
	}
	return c.post(EndpointCancelOrder, body)
}

// CancelAlgoOrders 批量撤销条件单，一次调用撤多个
func (c *Client) CancelAlgoOrders(items []CancelAlgoItem) *Response {
	// 这个端点的请求体是裸数组
	return c.post(EndpointCancelAlgoOrders, items)
}

// GetPendingOrders 查询未成交的普通订单
func (c *Client) GetPendingOrders(instType, instID string) *Response {
	params := []param{{"instType", instType}}
	if instID != "" {
		params = append(params, param{"instId", instID})
	}
	return c.get(EndpointPendingOrders, params)
}

// GetAlgoOrders 查询未触发的条件单
func (c *Client) GetAlgoOrders(instType, instID string) *Response {
	params := []param{
		{"ordType", "conditional"},
		{"instType", instType},
	}
	if instID != "" {
		params = append(params, param{"instId", instID})
	}
	return c.get(EndpointPendingAlgoOrders, params)
}

// GetOrderHistory 查询历史订单
func (c *Client) GetOrderHistory(q HistoryQuery) *Response {
	return c.get(EndpointOrderHistory, historyParams(q))
}

// GetFillsHistory 查询成交明细
func (c *Client) GetFillsHistory(q HistoryQuery) *Response {
	return c.get(EndpointFillsHistory, historyParams(q))
}

func historyParams(q HistoryQuery) []param {
	params := []param{
		{"instType", q.InstType},
		{"limit", q.limitParam()},
	}
	if q.InstID != "" {
		params = append(params, param{"instId", q.InstID})
	}
	if q.Begin != "" {
		params = append(params, param{"begin", q.Begin})
	}
	if q.End != "" {
		params = append(params, param{"end", q.End})
	}
	return params
}

// CancelAllOrders 撤销全部挂单：普通订单逐个撤，条件单一批撤。
// 单个撤单失败不会中断剩余撤单，所有结果都会被收集返回。
func (c *Client) CancelAllOrders(instType, instID string) *CancelAllResult {
	result := &CancelAllResult{
		RegularOrders: []*Response{},
		AlgoOrders:    []*Response{},
	}

	pending := c.GetPendingOrders(instType, instID)
	if pending.IsOK() {
		var orders []PendingOrder
		if err := pending.DataInto(&orders); err == nil {
			for _, o := range orders {
				result.RegularOrders = append(result.RegularOrders, c.CancelOrder(o.InstID, o.OrdID, ""))
			}
		}
	}

	algos := c.GetAlgoOrders(instType, instID)
	if algos.IsOK() {
		var orders []AlgoOrder
		if err := algos.DataInto(&orders); err == nil && len(orders) > 0 {
			items := make([]CancelAlgoItem, 0, len(orders))
			for _, o := range orders {
				items = append(items, CancelAlgoItem{AlgoID: o.AlgoID, InstID: o.InstID})
			}
			result.AlgoOrders = append(result.AlgoOrders, c.CancelAlgoOrders(items))
		}
	}

	return result
}
