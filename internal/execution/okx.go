package execution

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/betbot/goperp/internal/domain"
	okxclient "github.com/betbot/goperp/okx/client"
	"github.com/betbot/goperp/okx/types"
)

// OKXExchange OKX 风格衍生品交易所适配器：
// 负责符号格式（BTC -> BTC-USDT-SWAP）、线协议字段映射和响应归一化。
type OKXExchange struct {
	client   *okxclient.Client
	quoteCcy string // 计价币种，默认 USDT

	posModeMu sync.Mutex
	posMode   string // 账户仓位模式（net_mode / long_short_mode），首次下单前懒加载
}

// NewOKXExchange 创建适配器
func NewOKXExchange(client *okxclient.Client) *OKXExchange {
	return &OKXExchange{client: client, quoteCcy: "USDT"}
}

func (e *OKXExchange) Name() string { return "okx" }

// FormatSymbol 标的 → 永续合约 ID
func (e *OKXExchange) FormatSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "-") {
		return s // 已经是合约 ID
	}
	return s + "-" + e.quoteCcy + "-SWAP"
}

// baseSymbol 合约 ID → 标的
func baseSymbol(instID string) string {
	if i := strings.Index(instID, "-"); i > 0 {
		return instID[:i]
	}
	return instID
}

func parseF(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// FetchInstrument 拉取合约规格
func (e *OKXExchange) FetchInstrument(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	instID := e.FormatSymbol(symbol)
	items, err := e.client.Instruments(ctx, types.InstTypeSwap, instID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("合约不存在: %s", instID)
	}
	it := items[0]
	ctVal, err := decimal.NewFromString(it.CtVal)
	if err != nil {
		return nil, domain.NewValidationError("合约面值非法: %q", it.CtVal)
	}
	minSz, err := decimal.NewFromString(it.MinSz)
	if err != nil {
		return nil, domain.NewValidationError("最小下单量非法: %q", it.MinSz)
	}
	lotSz, err := decimal.NewFromString(it.LotSz)
	if err != nil {
		return nil, domain.NewValidationError("下单步长非法: %q", it.LotSz)
	}
	return &domain.InstrumentSpec{
		Symbol:        baseSymbol(instID),
		InstID:        instID,
		ContractValue: ctVal,
		MinOrderSize:  minSz,
		SizeIncrement: lotSz,
	}, nil
}

// ReferencePrice 用标记价格作为参考价（比最新成交价更抗插针）
func (e *OKXExchange) ReferencePrice(ctx context.Context, symbol string) (float64, error) {
	mp, err := e.client.MarkPrice(ctx, e.FormatSymbol(symbol))
	if err != nil {
		return 0, err
	}
	return parseF(mp.MarkPx), nil
}

// Balance 查询单币种余额并归一化
func (e *OKXExchange) Balance(ctx context.Context, ccy string) (*domain.Balance, error) {
	if ccy == "" {
		ccy = e.quoteCcy
	}
	data, err := e.client.Balance(ctx, ccy)
	if err != nil {
		return nil, err
	}
	for _, d := range data.Details {
		if strings.EqualFold(d.Ccy, ccy) {
			avail := d.AvailEq
			if avail == "" {
				avail = d.AvailBal
			}
			return &domain.Balance{
				Currency:  d.Ccy,
				Equity:    parseF(d.Eq),
				Available: parseF(avail),
				Frozen:    parseF(d.FrozenBal),
				Upl:       parseF(d.Upl),
			}, nil
		}
	}
	return &domain.Balance{Currency: ccy}, nil
}

// Positions 查询持仓并归一化（交易所字段名 → 共享形态）
func (e *OKXExchange) Positions(ctx context.Context) ([]domain.Position, error) {
	data, err := e.client.Positions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(data))
	for _, p := range data {
		if parseF(p.Pos) == 0 {
			continue
		}
		out = append(out, domain.Position{
			Symbol:        baseSymbol(p.InstID),
			InstID:        p.InstID,
			Side:          p.PosSide,
			Contracts:     parseF(p.Pos),
			Leverage:      int(parseF(p.Lever)),
			MarginMode:    domain.MarginMode(p.MgnMode),
			AveragePrice:  parseF(p.AvgPx),
			UnrealizedPnl: parseF(p.Upl),
			LiqPrice:      parseF(p.LiqPx),
		})
	}
	return out, nil
}

// PendingOrders 查询挂单并归一化
func (e *OKXExchange) PendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error) {
	instID := ""
	if symbol != "" {
		instID = e.FormatSymbol(symbol)
	}
	data, err := e.client.PendingOrders(ctx, instID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PendingOrder, 0, len(data))
	for _, o := range data {
		out = append(out, domain.PendingOrder{
			Symbol:        baseSymbol(o.InstID),
			InstID:        o.InstID,
			OrderID:       o.OrdID,
			ClientOrderID: o.ClOrdID,
			Side:          domain.Side(o.Side),
			OrderType:     o.OrdType,
			Price:         parseF(o.Px),
			Size:          parseF(o.Sz),
			FilledSize:    parseF(o.AccFillSz),
			State:         o.State,
			CreatedAtMs:   int64(parseF(o.CTime)),
		})
	}
	return out, nil
}

// AccountConfig 查询账户配置
func (e *OKXExchange) AccountConfig(ctx context.Context) (*domain.AccountConfig, error) {
	data, err := e.client.AccountConfig(ctx)
	if err != nil {
		return nil, err
	}
	e.posModeMu.Lock()
	e.posMode = data.PosMode
	e.posModeMu.Unlock()
	return &domain.AccountConfig{
		AccountLevel: data.AcctLv,
		PositionMode: data.PosMode,
	}, nil
}

// positionMode 返回账户仓位模式；未知时先查账户配置（懒加载，加锁防并发重复拉取）。
// 查询失败按净持仓处理（posSide 留空），由交易所做最终裁决。
func (e *OKXExchange) positionMode(ctx context.Context) string {
	e.posModeMu.Lock()
	defer e.posModeMu.Unlock()
	if e.posMode != "" {
		return e.posMode
	}
	data, err := e.client.AccountConfig(ctx)
	if err != nil {
		log.Warnf("⚠️ [适配器] 仓位模式查询失败，按净持仓处理: %v", err)
		return ""
	}
	e.posMode = data.PosMode
	return e.posMode
}

// Leverage 查询当前杠杆
func (e *OKXExchange) Leverage(ctx context.Context, symbol string, mode domain.MarginMode) (int, error) {
	return e.client.LeverageInfo(ctx, e.FormatSymbol(symbol), string(mode))
}

// SetLeverage 设置杠杆；交易所报"未变化"按成功处理
func (e *OKXExchange) SetLeverage(ctx context.Context, symbol string, mode domain.MarginMode, leverage int) error {
	err := e.client.SetLeverage(ctx, &types.SetLeverageRequest{
		InstID:  e.FormatSymbol(symbol),
		Lever:   strconv.Itoa(leverage),
		MgnMode: string(mode),
	})
	if err != nil {
		if ee, ok := err.(*domain.ExecError); ok && strings.Contains(strings.ToLower(ee.Message), "not modified") {
			return nil // 已经是目标值
		}
		return err
	}
	return nil
}

// MaxOrderSize 最大可开仓（张）
func (e *OKXExchange) MaxOrderSize(ctx context.Context, symbol string, mode domain.MarginMode) (float64, float64, error) {
	data, err := e.client.MaxSize(ctx, e.FormatSymbol(symbol), string(mode))
	if err != nil {
		return 0, 0, err
	}
	return parseF(data.MaxBuy), parseF(data.MaxSell), nil
}

// MaxAvailSize 最大可用（张）
func (e *OKXExchange) MaxAvailSize(ctx context.Context, symbol string, mode domain.MarginMode) (float64, float64, error) {
	data, err := e.client.MaxAvailSize(ctx, e.FormatSymbol(symbol), string(mode))
	if err != nil {
		return 0, 0, err
	}
	return parseF(data.AvailBuy), parseF(data.AvailSell), nil
}

// FeeRates 当前费率
func (e *OKXExchange) FeeRates(ctx context.Context) (*domain.FeeSchedule, error) {
	data, err := e.client.TradeFee(ctx, types.InstTypeSwap)
	if err != nil {
		return nil, err
	}
	return &domain.FeeSchedule{
		Maker: parseF(data.Maker),
		Taker: parseF(data.Taker),
	}, nil
}

// posSide 双向持仓模式下必须带 posSide；净持仓模式留空
func posSide(posMode string, side domain.Side, reduceOnly bool) string {
	if posMode != "long_short_mode" {
		return ""
	}
	// 双向模式：买开多/卖平多，卖开空/买平空
	if (side == domain.SideBuy) != reduceOnly {
		return types.PosSideLong
	}
	return types.PosSideShort
}

func (e *OKXExchange) toWireOrder(ctx context.Context, req *OrderRequest) *types.PlaceOrderRequest {
	w := &types.PlaceOrderRequest{
		InstID:     e.FormatSymbol(req.Symbol),
		TdMode:     string(req.MarginMode),
		Side:       string(req.Side),
		PosSide:    posSide(e.positionMode(ctx), req.Side, req.ReduceOnly),
		OrdType:    string(req.OrderType),
		Sz:         req.Contracts.String(),
		ClOrdID:    req.ClientOrderID,
		ReduceOnly: req.ReduceOnly,
	}
	if req.OrderType == domain.OrderTypeLimit {
		w.Px = strconv.FormatFloat(req.Price, 'f', -1, 64)
	}
	return w
}

// PlaceOrder 单笔下单
func (e *OKXExchange) PlaceOrder(ctx context.Context, req *OrderRequest) (*domain.OrderResult, error) {
	data, raw, err := e.client.PlaceOrder(ctx, e.toWireOrder(ctx, req))
	if err != nil {
		return domain.FailedResult(err, string(raw)), err
	}
	return &domain.OrderResult{
		Success:       true,
		OrderID:       data.OrdID,
		ClientOrderID: data.ClOrdID,
		RawResponse:   string(raw),
	}, nil
}

// PlaceBatch 批量下单：部分成功逐条上报
func (e *OKXExchange) PlaceBatch(ctx context.Context, reqs []*OrderRequest) ([]*domain.OrderResult, error) {
	wire := make([]*types.PlaceOrderRequest, len(reqs))
	for i, r := range reqs {
		wire[i] = e.toWireOrder(ctx, r)
	}
	items, raw, err := e.client.PlaceBatchOrders(ctx, wire)
	if err != nil && len(items) == 0 {
		return nil, err
	}
	out := make([]*domain.OrderResult, 0, len(items))
	for _, it := range items {
		if it.SCode == "" || it.SCode == "0" {
			out = append(out, &domain.OrderResult{
				Success:       true,
				OrderID:       it.OrdID,
				ClientOrderID: it.ClOrdID,
			})
			continue
		}
		out = append(out, domain.FailedResult(&domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Code:    it.SCode,
			Message: it.SMsg,
			Hint:    okxclient.RemediationFor(it.SCode),
		}, string(raw)))
	}
	return out, nil
}

// PlaceAlgo 条件单（止盈/止损）
func (e *OKXExchange) PlaceAlgo(ctx context.Context, req *AlgoRequest) (*domain.OrderResult, error) {
	ordType := types.OrdTypeConditional
	if req.TakeProfit != nil && req.StopLoss != nil {
		ordType = types.OrdTypeOCO
	}
	w := &types.AlgoOrderRequest{
		InstID:      e.FormatSymbol(req.Symbol),
		TdMode:      string(req.MarginMode),
		Side:        string(req.Side),
		PosSide:     posSide(e.positionMode(ctx), req.Side, req.ReduceOnly),
		OrdType:     ordType,
		Sz:          req.Contracts.String(),
		ReduceOnly:  req.ReduceOnly,
		AlgoClOrdID: req.ClientOrderID,
	}
	if tp := req.TakeProfit; tp != nil {
		w.TpTriggerPx = strconv.FormatFloat(tp.TriggerPrice, 'f', -1, 64)
		w.TpOrdPx = triggerOrdPx(tp)
	}
	if sl := req.StopLoss; sl != nil {
		w.SlTriggerPx = strconv.FormatFloat(sl.TriggerPrice, 'f', -1, 64)
		w.SlOrdPx = triggerOrdPx(sl)
	}
	data, raw, err := e.client.PlaceAlgoOrder(ctx, w)
	if err != nil {
		return domain.FailedResult(err, string(raw)), err
	}
	return &domain.OrderResult{
		Success:       true,
		OrderID:       data.AlgoID,
		ClientOrderID: data.AlgoClOrdID,
		RawResponse:   string(raw),
	}, nil
}

// triggerOrdPx 触发后的委托价；0 表示按市价执行（线协议用 "-1" 表达）
func triggerOrdPx(t *domain.TriggerSpec) string {
	if t.OrderPrice <= 0 {
		return "-1"
	}
	return strconv.FormatFloat(t.OrderPrice, 'f', -1, 64)
}

// CancelOrder 撤单
func (e *OKXExchange) CancelOrder(ctx context.Context, symbol, orderID, clientOrderID string) error {
	return e.client.CancelOrder(ctx, &types.CancelOrderRequest{
		InstID:  e.FormatSymbol(symbol),
		OrdID:   orderID,
		ClOrdID: clientOrderID,
	})
}

func (e *OKXExchange) BatchLimit() int { return okxclient.MaxBatchOrders }
