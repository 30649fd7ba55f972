package client

import "strconv"

// GetBalance 查询账户余额，ccy 为空时返回全部币种
func (c *Client) GetBalance(ccy string) *Response {
	var params []param
	if ccy != "" {
		params = append(params, param{"ccy", ccy})
	}
	return c.get(EndpointBalance, params)
}

// GetPositions 查询持仓，instID 可选
func (c *Client) GetPositions(instType, instID string) *Response {
	params := []param{{"instType", instType}}
	if instID != "" {
		params = append(params, param{"instId", instID})
	}
	return c.get(EndpointPositions, params)
}

// GetAccountConfig 查询账户配置
func (c *Client) GetAccountConfig() *Response {
	return c.get(EndpointAccountConfig, nil)
}

// SetLeverage 设置杠杆。同一杠杆值重复设置是安全的。
func (c *Client) SetLeverage(instID string, lever int, mgnMode, posSide string) *Response {
	body := map[string]string{
		"instId":  instID,
		"lever":   strconv.Itoa(lever),
		"mgnMode": mgnMode,
	}
	if posSide != "" {
		body["posSide"] = posSide
	}
	return c.post(EndpointSetLeverage, body)
}

// GetBills 查询账单流水（资金变动明细）
func (c *Client) GetBills(q HistoryQuery) *Response {
	params := []param{
		{"instType", q.InstType},
		{"limit", q.limitParam()},
	}
	if q.Begin != "" {
		params = append(params, param{"begin", q.Begin})
	}
	if q.End != "" {
		params = append(params, param{"end", q.End})
	}
	return c.get(EndpointBills, params)
}
