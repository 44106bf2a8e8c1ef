package types

// BalanceData 账户余额响应（总账户层）
type BalanceData struct {
	TotalEq string          `json:"totalEq"`
	Details []BalanceDetail `json:"details"`
}

// BalanceDetail 单币种余额
type BalanceDetail struct {
	Ccy       string `json:"ccy"`
	Eq        string `json:"eq"`
	CashBal   string `json:"cashBal"`
	AvailBal  string `json:"availBal"`
	AvailEq   string `json:"availEq"`
	FrozenBal string `json:"frozenBal"`
	UplLiab   string `json:"uplLiab"`
	Upl       string `json:"upl"`
}

// PositionData 持仓响应
type PositionData struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	MgnMode  string `json:"mgnMode"`
	PosSide  string `json:"posSide"`
	Pos      string `json:"pos"`     // 持仓数量（张）
	PosCcy   string `json:"posCcy"`
	AvgPx    string `json:"avgPx"`
	Upl      string `json:"upl"`
	UplRatio string `json:"uplRatio"`
	Lever    string `json:"lever"`
	LiqPx    string `json:"liqPx"`
	Margin   string `json:"margin"`
	CTime    string `json:"cTime"`
	UTime    string `json:"uTime"`
}

// AccountConfigData 账户配置响应
type AccountConfigData struct {
	AcctLv     string `json:"acctLv"`  // 账户层级：1 简单 2 单币种保证金 3 跨币种 4 组合
	PosMode    string `json:"posMode"` // long_short_mode / net_mode
	AutoLoan   bool   `json:"autoLoan"`
	Level      string `json:"level"`
	CtIsoMode  string `json:"ctIsoMode"`
	MgnIsoMode string `json:"mgnIsoMode"`
}

// LeverageData 杠杆查询/设置响应
type LeverageData struct {
	InstID  string `json:"instId"`
	MgnMode string `json:"mgnMode"`
	PosSide string `json:"posSide"`
	Lever   string `json:"lever"`
}

// SetLeverageRequest 设置杠杆请求
type SetLeverageRequest struct {
	InstID  string `json:"instId,omitempty"`
	Ccy     string `json:"ccy,omitempty"`
	Lever   string `json:"lever"`
	MgnMode string `json:"mgnMode"`
	PosSide string `json:"posSide,omitempty"`
}

// MaxSizeData 最大可开仓数量响应
type MaxSizeData struct {
	InstID  string `json:"instId"`
	Ccy     string `json:"ccy"`
	MaxBuy  string `json:"maxBuy"`
	MaxSell string `json:"maxSell"`
}

// MaxAvailSizeData 最大可用数量响应
type MaxAvailSizeData struct {
	InstID    string `json:"instId"`
	AvailBuy  string `json:"availBuy"`
	AvailSell string `json:"availSell"`
}

// FeeRateData 当前费率响应（maker/taker 为负数表示支付）
type FeeRateData struct {
	InstType string `json:"instType"`
	Category string `json:"category"`
	Maker    string `json:"maker"`
	Taker    string `json:"taker"`
	Level    string `json:"level"`
	Ts       string `json:"ts"`
}
