package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/internal/domain"
)

var log = logrus.WithField("component", "execution")

// plausibleRanges 各标的的参考价合理区间（USD）。
// 上游传进来的价格落在区间外说明喂价坏了，宁可拒单也不要按错价换算名义额。
var plausibleRanges = map[string][2]float64{
	"BTC": {1_000, 10_000_000},
	"ETH": {50, 1_000_000},
	"SOL": {1, 100_000},
}

// PriceSource 本地价源（行情流）。交付不到新鲜价时返回 false，
// 执行层回退到 REST 标记价格。
type PriceSource interface {
	Price(instID string, maxAge time.Duration) (float64, bool)
}

// Options 执行服务可选参数
type Options struct {
	// DefaultLeverage 意图未指定杠杆时使用
	DefaultLeverage int
	// DefaultMarginMode 意图未指定保证金模式时使用
	DefaultMarginMode domain.MarginMode
	// SkipPreCheck 跳过最大可开仓预检（小额高频场景省一次请求）
	SkipPreCheck bool
	// Prices 可选行情流价源，优先于 REST 参考价
	Prices PriceSource
	// PriceMaxAge 行情流价格的新鲜度窗口，默认 10s
	PriceMaxAge time.Duration
}

// Service 订单执行服务：把抽象交易意图变成交易所回执。
// 流水线固定六步：校验 → 换算 → 预检 → 杠杆 → 下单 → 费用估算，
// 任何一步失败都返回带分类的结果，绝不部分执行。
type Service struct {
	exchange    Exchange
	instruments *InstrumentCache
	opts        Options
}

// NewService 创建执行服务
func NewService(exchange Exchange, instruments *InstrumentCache, opts Options) *Service {
	if opts.DefaultLeverage <= 0 {
		opts.DefaultLeverage = 3
	}
	if opts.DefaultMarginMode == "" {
		opts.DefaultMarginMode = domain.MarginModeCross
	}
	if opts.PriceMaxAge <= 0 {
		opts.PriceMaxAge = 10 * time.Second
	}
	return &Service{exchange: exchange, instruments: instruments, opts: opts}
}

// Execute 执行一笔交易意图。
// 返回的 *OrderResult 永不为 nil；err 非空时 result 携带同样的错误分类，
// 方便调用方选择用错误还是结果来分流。
func (s *Service) Execute(ctx context.Context, intent *domain.TradeIntent) (*domain.OrderResult, error) {
	start := time.Now()

	// 第一步：本地校验（不发网络请求）
	if err := s.validate(intent); err != nil {
		log.Warnf("🚫 [执行] %s %s 本地校验失败: %v", intent.Symbol, intent.Side, err)
		return domain.FailedResult(err, ""), err
	}

	mode := intent.MarginMode
	if mode == "" {
		mode = s.opts.DefaultMarginMode
	}

	// 参考价：上游给的 > 行情流 > REST 标记价格
	price, err := s.resolvePrice(ctx, intent)
	if err != nil {
		return domain.FailedResult(err, ""), err
	}
	if err := s.checkPlausible(intent.Symbol, price); err != nil {
		return domain.FailedResult(err, ""), err
	}

	// 第二步：币数量 → 合约张数
	spec, err := s.instruments.GetSpec(ctx, intent.Symbol)
	if err != nil {
		return domain.FailedResult(err, ""), err
	}
	coins := intent.Quantity(price)
	if coins <= 0 {
		err := domain.NewValidationError("数量为零: notional=%.2f qty=%.8f price=%.2f",
			intent.NotionalUSD, intent.QuantityCoins, price)
		return domain.FailedResult(err, ""), err
	}
	contracts := spec.ToContracts(decimal.NewFromFloat(coins))
	if contracts.IsZero() {
		err := domain.NewValidationError("换算后张数为零: %.8f %s", coins, intent.Symbol)
		return domain.FailedResult(err, ""), err
	}

	// 第三步：最大可开仓预检（减仓单不做，本来就是在缩小风险）
	if !s.opts.SkipPreCheck && !intent.ReduceOnly {
		if err := s.preCheck(ctx, intent, mode, contracts.InexactFloat64()); err != nil {
			return domain.FailedResult(err, ""), err
		}
	}

	// 第四步：杠杆对齐（已是目标值则跳过设置）
	if !intent.ReduceOnly {
		if err := s.ensureLeverage(ctx, intent.Symbol, mode, intent.Leverage); err != nil {
			return domain.FailedResult(err, ""), err
		}
	}

	// 第五步：下单
	clOrdID := intent.ClientOrderID
	if clOrdID == "" {
		clOrdID = newClientOrderID()
	}

	// 条件单走独立的 algo 端点，交易所持有、触发后自动执行
	if intent.OrderType == domain.OrderTypeConditional {
		result, err := s.exchange.PlaceAlgo(ctx, &AlgoRequest{
			Symbol:        intent.Symbol,
			Side:          intent.Side,
			MarginMode:    mode,
			Contracts:     contracts,
			TakeProfit:    intent.TakeProfit,
			StopLoss:      intent.StopLoss,
			ReduceOnly:    intent.ReduceOnly,
			ClientOrderID: clOrdID,
		})
		if err != nil {
			log.Errorf("❌ [执行] %s 条件单失败(%s): %v", intent.Symbol, domain.KindOf(err), err)
			return result, err
		}
		log.Infof("✅ [执行] %s 条件单已挂 ordId=%s %s张", intent.Symbol, result.OrderID, contracts)
		return result, nil
	}

	req := &OrderRequest{
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		MarginMode:    mode,
		OrderType:     intent.OrderType,
		Contracts:     contracts,
		Price:         intent.LimitPrice,
		ReduceOnly:    intent.ReduceOnly,
		ClientOrderID: clOrdID,
	}
	result, err := s.exchange.PlaceOrder(ctx, req)
	if err != nil {
		log.Errorf("❌ [执行] %s %s %s张 失败(%s): %v",
			intent.Symbol, intent.Side, contracts, domain.KindOf(err), err)
		return result, err
	}

	// 第六步：费用估算（尽力而为，失败不影响下单结果）
	notional := coins * price
	result.FilledQuantity = coins
	result.EstimatedFee = s.instruments.GetFees(ctx).EstimateFee(notional)

	log.Infof("✅ [执行] %s %s %s张 ordId=%s 名义=%.2fUSD 估算费=%.4f 耗时=%s",
		intent.Symbol, intent.Side, contracts, result.OrderID,
		notional, result.EstimatedFee, time.Since(start).Round(time.Millisecond))

	// 止盈/止损：主单成交后挂交易所侧条件单
	if intent.TakeProfit != nil || intent.StopLoss != nil {
		s.attachTriggers(ctx, intent, mode, contracts, result)
	}
	return result, nil
}

// attachTriggers 给已成交的主单补挂止盈/止损条件单。
// 条件单失败只记录到结果里，不回滚主单（仓位已经在了）。
func (s *Service) attachTriggers(ctx context.Context, intent *domain.TradeIntent, mode domain.MarginMode, contracts decimal.Decimal, result *domain.OrderResult) {
	closeSide := domain.SideSell
	if intent.Side == domain.SideSell {
		closeSide = domain.SideBuy
	}
	algo := &AlgoRequest{
		Symbol:        intent.Symbol,
		Side:          closeSide,
		MarginMode:    mode,
		Contracts:     contracts,
		TakeProfit:    intent.TakeProfit,
		StopLoss:      intent.StopLoss,
		ReduceOnly:    true,
		ClientOrderID: "tp" + result.ClientOrderID,
	}
	if _, err := s.exchange.PlaceAlgo(ctx, algo); err != nil {
		log.Errorf("⚠️ [执行] %s 条件单挂载失败（主单 %s 已成交）: %v",
			intent.Symbol, result.OrderID, err)
		result.Remediation = "主单已成交但止盈/止损挂载失败，需要人工补挂: " + err.Error()
	}
}

// validate 本地校验：不发网络请求就能发现的问题在这里拦下。
func (s *Service) validate(intent *domain.TradeIntent) error {
	if intent == nil {
		return domain.NewValidationError("交易意图为空")
	}
	if strings.TrimSpace(intent.Symbol) == "" {
		return domain.NewValidationError("标的为空")
	}
	if intent.Side != domain.SideBuy && intent.Side != domain.SideSell {
		return domain.NewValidationError("非法方向: %q", intent.Side)
	}
	if intent.NotionalUSD <= 0 && intent.QuantityCoins <= 0 {
		return domain.NewValidationError("名义额与数量都未指定")
	}
	switch intent.OrderType {
	case domain.OrderTypeMarket:
	case domain.OrderTypeLimit:
		if intent.LimitPrice <= 0 {
			return domain.NewValidationError("限价单缺少价格")
		}
	case domain.OrderTypeConditional:
		if intent.TakeProfit == nil && intent.StopLoss == nil {
			return domain.NewValidationError("条件单缺少触发参数")
		}
	default:
		return domain.NewValidationError("非法订单类型: %q", intent.OrderType)
	}
	if intent.Leverage < 0 || intent.Leverage > 125 {
		return domain.NewValidationError("杠杆越界: %d", intent.Leverage)
	}
	if mm := intent.MarginMode; mm != "" && mm != domain.MarginModeCross && mm != domain.MarginModeIsolated {
		return domain.NewValidationError("非法保证金模式: %q", mm)
	}
	return nil
}

// resolvePrice 参考价取值顺序：意图自带 > 行情流（新鲜）> REST 标记价格。
func (s *Service) resolvePrice(ctx context.Context, intent *domain.TradeIntent) (float64, error) {
	if intent.ReferencePrice > 0 {
		return intent.ReferencePrice, nil
	}
	if s.opts.Prices != nil {
		if px, ok := s.opts.Prices.Price(s.exchange.FormatSymbol(intent.Symbol), s.opts.PriceMaxAge); ok {
			return px, nil
		}
	}
	return s.exchange.ReferencePrice(ctx, intent.Symbol)
}

// checkPlausible 参考价合理性：已知标的用白名单区间，未知标的只要求正数。
func (s *Service) checkPlausible(symbol string, price float64) error {
	if price <= 0 {
		return domain.NewValidationError("参考价非正: %.4f", price)
	}
	if r, ok := plausibleRanges[strings.ToUpper(symbol)]; ok {
		if price < r[0] || price > r[1] {
			return domain.NewValidationError("参考价 %.2f 超出 %s 合理区间 [%.0f, %.0f]，疑似喂价异常",
				price, symbol, r[0], r[1])
		}
	}
	return nil
}

// preCheck 下单前的双重预检：单笔上限（max-order-size）和可用额度
// （max-avail-size）任一超限都在本地拦下，省一次注定被拒的下单。
func (s *Service) preCheck(ctx context.Context, intent *domain.TradeIntent, mode domain.MarginMode, contracts float64) error {
	pick := func(buy, sell float64) float64 {
		if intent.Side == domain.SideSell {
			return sell
		}
		return buy
	}

	maxBuy, maxSell, err := s.exchange.MaxOrderSize(ctx, intent.Symbol, mode)
	if err != nil {
		// 预检失败不拦单：让交易所做最终裁决
		log.Warnf("⚠️ [执行] %s 单笔上限预检失败，跳过: %v", intent.Symbol, err)
	} else if limit := pick(maxBuy, maxSell); limit > 0 && contracts > limit {
		return &domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Message: fmt.Sprintf("下单 %.2f 张超过单笔上限 %.2f 张（%s %s）", contracts, limit, intent.Symbol, intent.Side),
			Hint:    "拆单或改用限价",
		}
	}

	availBuy, availSell, err := s.exchange.MaxAvailSize(ctx, intent.Symbol, mode)
	if err != nil {
		log.Warnf("⚠️ [执行] %s 可用额度预检失败，跳过: %v", intent.Symbol, err)
		return nil
	}
	if limit := pick(availBuy, availSell); limit > 0 && contracts > limit {
		return &domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Message: fmt.Sprintf("下单 %.2f 张超过最大可用 %.2f 张（%s %s）", contracts, limit, intent.Symbol, intent.Side),
			Hint:    "降低名义额或先释放保证金",
		}
	}
	return nil
}

// ensureLeverage 杠杆对齐：已是目标值则不发设置请求。
func (s *Service) ensureLeverage(ctx context.Context, symbol string, mode domain.MarginMode, leverage int) error {
	if leverage <= 0 {
		leverage = s.opts.DefaultLeverage
	}
	current, err := s.exchange.Leverage(ctx, symbol, mode)
	if err == nil && current == leverage {
		return nil
	}
	if err := s.exchange.SetLeverage(ctx, symbol, mode, leverage); err != nil {
		return err
	}
	log.Infof("🔧 [执行] %s 杠杆 %d -> %d (%s)", symbol, current, leverage, mode)
	return nil
}

// ExecuteBatch 批量执行。按交易所批量上限分片；每个意图一条结果，
// 部分成功是正常返回而不是错误。
func (s *Service) ExecuteBatch(ctx context.Context, intents []*domain.TradeIntent) ([]*domain.OrderResult, error) {
	if len(intents) == 0 {
		return nil, domain.NewValidationError("批量意图为空")
	}

	results := make([]*domain.OrderResult, len(intents))
	reqs := make([]*OrderRequest, 0, len(intents))
	reqIdx := make([]int, 0, len(intents))

	for i, intent := range intents {
		req, err := s.buildRequest(ctx, intent)
		if err != nil {
			results[i] = domain.FailedResult(err, "")
			continue
		}
		reqs = append(reqs, req)
		reqIdx = append(reqIdx, i)
	}

	limit := s.exchange.BatchLimit()
	for off := 0; off < len(reqs); off += limit {
		end := off + limit
		if end > len(reqs) {
			end = len(reqs)
		}
		chunk, err := s.exchange.PlaceBatch(ctx, reqs[off:end])
		if err != nil && len(chunk) == 0 {
			// 认证/传输级失败：这一片全部置为失败
			for j := off; j < end; j++ {
				results[reqIdx[j]] = domain.FailedResult(err, "")
			}
			continue
		}
		// 回显条数可能与请求数不符（畸形响应）：多出的丢弃，缺失的补失败
		for j := off; j < end; j++ {
			k := j - off
			if k < len(chunk) && chunk[k] != nil {
				results[reqIdx[j]] = chunk[k]
				continue
			}
			results[reqIdx[j]] = domain.FailedResult(&domain.ExecError{
				Kind:    domain.ErrKindTransport,
				Message: "批量响应缺少该单的结果",
			}, "")
		}
	}

	ok := 0
	for _, r := range results {
		if r != nil && r.Success {
			ok++
		}
	}
	log.Infof("📦 [执行] 批量完成: %d/%d 成功", ok, len(intents))
	return results, nil
}

// buildRequest 对单个意图跑校验+换算，产出可下单请求。
func (s *Service) buildRequest(ctx context.Context, intent *domain.TradeIntent) (*OrderRequest, error) {
	if err := s.validate(intent); err != nil {
		return nil, err
	}
	// 批量端点只收普通单，条件单走 Execute 单独提交
	if intent.OrderType == domain.OrderTypeConditional {
		return nil, domain.NewValidationError("条件单不支持批量提交")
	}
	price, err := s.resolvePrice(ctx, intent)
	if err != nil {
		return nil, err
	}
	if err := s.checkPlausible(intent.Symbol, price); err != nil {
		return nil, err
	}
	spec, err := s.instruments.GetSpec(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}
	contracts := spec.ToContracts(decimal.NewFromFloat(intent.Quantity(price)))
	if contracts.IsZero() {
		return nil, domain.NewValidationError("换算后张数为零: %s", intent.Symbol)
	}
	mode := intent.MarginMode
	if mode == "" {
		mode = s.opts.DefaultMarginMode
	}
	clOrdID := intent.ClientOrderID
	if clOrdID == "" {
		clOrdID = newClientOrderID()
	}
	return &OrderRequest{
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		MarginMode:    mode,
		OrderType:     intent.OrderType,
		Contracts:     contracts,
		Price:         intent.LimitPrice,
		ReduceOnly:    intent.ReduceOnly,
		ClientOrderID: clOrdID,
	}, nil
}

// newClientOrderID 交易所只接受字母数字，去掉 uuid 的连字符
func newClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// --- 查询门面：直接透传适配器，调用方不用拿着两个对象 ---

// GetBalance 查询余额
func (s *Service) GetBalance(ctx context.Context, ccy string) (*domain.Balance, error) {
	return s.exchange.Balance(ctx, ccy)
}

// GetOpenPositions 查询持仓
func (s *Service) GetOpenPositions(ctx context.Context) ([]domain.Position, error) {
	return s.exchange.Positions(ctx)
}

// GetPendingOrders 查询挂单
func (s *Service) GetPendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error) {
	return s.exchange.PendingOrders(ctx, symbol)
}

// GetInstrumentSpec 查询合约规格（走缓存）
func (s *Service) GetInstrumentSpec(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	return s.instruments.GetSpec(ctx, symbol)
}

// GetAccountConfig 查询账户配置
func (s *Service) GetAccountConfig(ctx context.Context) (*domain.AccountConfig, error) {
	return s.exchange.AccountConfig(ctx)
}

// CancelOrder 撤单
func (s *Service) CancelOrder(ctx context.Context, symbol, orderID, clientOrderID string) error {
	return s.exchange.CancelOrder(ctx, symbol, orderID, clientOrderID)
}

// PlaceAlgoOrder 给既有仓位挂止盈/止损条件单（reduceOnly，只缩仓不反向）。
// quantityCoins 以币计，内部走统一张数换算。
func (s *Service) PlaceAlgoOrder(ctx context.Context, symbol string, closeSide domain.Side, quantityCoins float64, tp, sl *domain.TriggerSpec) (*domain.OrderResult, error) {
	if tp == nil && sl == nil {
		err := domain.NewValidationError("条件单缺少触发参数")
		return domain.FailedResult(err, ""), err
	}
	if quantityCoins <= 0 {
		err := domain.NewValidationError("条件单数量非正: %.8f", quantityCoins)
		return domain.FailedResult(err, ""), err
	}
	spec, err := s.instruments.GetSpec(ctx, symbol)
	if err != nil {
		return domain.FailedResult(err, ""), err
	}
	contracts := spec.ToContracts(decimal.NewFromFloat(quantityCoins))
	if contracts.IsZero() {
		err := domain.NewValidationError("换算后张数为零: %s", symbol)
		return domain.FailedResult(err, ""), err
	}
	return s.exchange.PlaceAlgo(ctx, &AlgoRequest{
		Symbol:        symbol,
		Side:          closeSide,
		MarginMode:    s.opts.DefaultMarginMode,
		Contracts:     contracts,
		TakeProfit:    tp,
		StopLoss:      sl,
		ReduceOnly:    true,
		ClientOrderID: newClientOrderID(),
	})
}
