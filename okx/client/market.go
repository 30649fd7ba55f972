package client

// GetTicker 查询单个产品行情
func (c *Client) GetTicker(instID string) *Response {
	return c.get(EndpointTicker, []param{{"instId", instID}})
}

// GetInstruments 查询可交易产品列表
func (c *Client) GetInstruments(instType string) *Response {
	return c.get(EndpointInstruments, []param{{"instType", instType}})
}
