package client

// API 端点常量
const (
	// Account
	EndpointBalance       = "/api/v5/account/balance"
	EndpointPositions     = "/api/v5/account/positions"
	EndpointAccountConfig = "/api/v5/account/config"
	EndpointSetLeverage   = "/api/v5/account/set-leverage"
	EndpointBills         = "/api/v5/account/bills"

	// Trade
	EndpointPlaceOrder        = "/api/v5/trade/order"
	EndpointPlaceAlgoOrder    = "/api/v5/trade/order-algo"
	EndpointCancelOrder       = "/api/v5/trade/cancel-order"
	EndpointCancelAlgoOrders  = "/api/v5/trade/cancel-algos"
	EndpointPendingOrders     = "/api/v5/trade/orders-pending"
	EndpointPendingAlgoOrders = "/api/v5/trade/orders-algo-pending"
	EndpointOrderHistory      = "/api/v5/trade/orders-history"
	EndpointFillsHistory      = "/api/v5/trade/fills-history"

	// Market data
	EndpointTicker      = "/api/v5/market/ticker"
	EndpointInstruments = "/api/v5/public/instruments"
)
