package types

import "encoding/json"

// APIResponse 交易所统一响应信封。
// code == "0" 表示成功；业务失败时 code/msg 为整体错误，
// 批量下单时每条 data 里还有各自的 sCode/sMsg。
type APIResponse struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Data []json.RawMessage `json:"data"`
}

// CodeOK 成功响应码
const CodeOK = "0"

// InstType 产品类型
const (
	InstTypeSwap    = "SWAP"
	InstTypeFutures = "FUTURES"
	InstTypeSpot    = "SPOT"
)

// TdMode 交易模式（保证金模式）
const (
	TdModeCross    = "cross"
	TdModeIsolated = "isolated"
	TdModeCash     = "cash"
)

// Side 订单方向
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// PosSide 持仓方向（双向持仓模式下必填）
const (
	PosSideLong  = "long"
	PosSideShort = "short"
	PosSideNet   = "net"
)

// OrdType 订单类型
const (
	OrdTypeMarket      = "market"
	OrdTypeLimit       = "limit"
	OrdTypeConditional = "conditional" // 单向止盈/止损（algo）
	OrdTypeOCO         = "oco"         // 双向止盈止损（algo）
)
