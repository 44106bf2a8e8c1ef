package types

// InstrumentData 合约元数据响应（公共端点，无需签名）
type InstrumentData struct {
	InstID    string `json:"instId"`
	InstType  string `json:"instType"`
	Uly       string `json:"uly"`
	BaseCcy   string `json:"baseCcy"`
	QuoteCcy  string `json:"quoteCcy"`
	SettleCcy string `json:"settleCcy"`
	CtVal     string `json:"ctVal"`    // 合约面值（一张合约对应多少标的资产）
	CtValCcy  string `json:"ctValCcy"`
	CtMult    string `json:"ctMult"`
	MinSz     string `json:"minSz"` // 最小下单数量（张）
	LotSz     string `json:"lotSz"` // 下单数量步长（张）
	TickSz    string `json:"tickSz"`
	Lever     string `json:"lever"` // 最大杠杆
	State     string `json:"state"`
}

// TickerData 行情响应
type TickerData struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	LastSz    string `json:"lastSz"`
	AskPx     string `json:"askPx"`
	AskSz     string `json:"askSz"`
	BidPx     string `json:"bidPx"`
	BidSz     string `json:"bidSz"`
	Open24h   string `json:"open24h"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
	Ts        string `json:"ts"`
}

// MarkPriceData 标记价格响应
type MarkPriceData struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	MarkPx   string `json:"markPx"`
	Ts       string `json:"ts"`
}
