package client

// API 端点常量
const (
	// 公共端点（无需签名）
	EndpointInstruments = "/api/v5/public/instruments"
	EndpointTicker      = "/api/v5/market/ticker"
	EndpointMarkPrice   = "/api/v5/public/mark-price"

	// 账户端点
	EndpointBalance      = "/api/v5/account/balance"
	EndpointPositions    = "/api/v5/account/positions"
	EndpointConfig       = "/api/v5/account/config"
	EndpointLeverageInfo = "/api/v5/account/leverage-info"
	EndpointSetLeverage  = "/api/v5/account/set-leverage"
	EndpointMaxSize      = "/api/v5/account/max-size"
	EndpointMaxAvailSize = "/api/v5/account/max-avail-size"
	EndpointTradeFee     = "/api/v5/account/trade-fee"

	// 交易端点
	EndpointPlaceOrder    = "/api/v5/trade/order"
	EndpointBatchOrders   = "/api/v5/trade/batch-orders"
	EndpointCancelOrder   = "/api/v5/trade/cancel-order"
	EndpointOrdersPending = "/api/v5/trade/orders-pending"
	EndpointPlaceAlgo     = "/api/v5/trade/order-algo"
)

// MaxBatchOrders 批量下单单次上限（交易所硬限制）
const MaxBatchOrders = 20
