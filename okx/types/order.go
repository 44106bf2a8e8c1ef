package types

// PlaceOrderRequest 下单请求。
// 字段名必须与交易所线协议完全一致（含大小写），否则签名校验通过但业务拒单。
type PlaceOrderRequest struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	Side       string `json:"side"`
	PosSide    string `json:"posSide,omitempty"`
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	Px         string `json:"px,omitempty"`
	ClOrdID    string `json:"clOrdId,omitempty"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

// PlaceOrderData 下单响应（每单一条）
type PlaceOrderData struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	Tag     string `json:"tag"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// CancelOrderRequest 撤单请求（ordId / clOrdId 二选一）
type CancelOrderRequest struct {
	InstID  string `json:"instId"`
	OrdID   string `json:"ordId,omitempty"`
	ClOrdID string `json:"clOrdId,omitempty"`
}

// CancelOrderData 撤单响应
type CancelOrderData struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// AlgoOrderRequest 条件单（止盈/止损）请求。
// 条件单由交易所持有，触发价被穿越后自动执行；
// reduceOnly 保证只能缩小仓位，不会反向开仓。
type AlgoOrderRequest struct {
	InstID      string `json:"instId"`
	TdMode      string `json:"tdMode"`
	Side        string `json:"side"`
	PosSide     string `json:"posSide,omitempty"`
	OrdType     string `json:"ordType"` // conditional / oco
	Sz          string `json:"sz"`
	TpTriggerPx string `json:"tpTriggerPx,omitempty"`
	TpOrdPx     string `json:"tpOrdPx,omitempty"` // "-1" 表示触发后按市价执行
	SlTriggerPx string `json:"slTriggerPx,omitempty"`
	SlOrdPx     string `json:"slOrdPx,omitempty"`
	ReduceOnly  bool   `json:"reduceOnly,omitempty"`
	AlgoClOrdID string `json:"algoClOrdId,omitempty"`
}

// AlgoOrderData 条件单响应
type AlgoOrderData struct {
	AlgoID      string `json:"algoId"`
	AlgoClOrdID string `json:"algoClOrdId"`
	SCode       string `json:"sCode"`
	SMsg        string `json:"sMsg"`
}

// OrderDetailData 订单详情 / 挂单查询响应
type OrderDetailData struct {
	InstID      string `json:"instId"`
	OrdID       string `json:"ordId"`
	ClOrdID     string `json:"clOrdId"`
	Px          string `json:"px"`
	Sz          string `json:"sz"`
	OrdType     string `json:"ordType"`
	Side        string `json:"side"`
	PosSide     string `json:"posSide"`
	TdMode      string `json:"tdMode"`
	AccFillSz   string `json:"accFillSz"`
	AvgPx       string `json:"avgPx"`
	State       string `json:"state"`
	Lever       string `json:"lever"`
	ReduceOnly  string `json:"reduceOnly"`
	CTime       string `json:"cTime"`
	UTime       string `json:"uTime"`
	TpTriggerPx string `json:"tpTriggerPx"`
	SlTriggerPx string `json:"slTriggerPx"`
}
