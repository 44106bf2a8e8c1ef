package execution

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/pkg/cache"
)

var instLog = logrus.WithField("component", "instruments")

const (
	// InstrumentTTL 合约规格缓存时长。规格（面值/步长/下限）极少变动，
	// 24h 内复用不会产生错误换算。
	InstrumentTTL = 24 * time.Hour
	// FeeTTL 费率缓存时长。费率随 VIP 等级月度调整，1h 足够新鲜。
	FeeTTL = time.Hour
)

// defaultSpecs 降级规格表：元数据端点不可用时的回退值。
// 只覆盖主流合约，值按主站公开规格手工核对。
var defaultSpecs = map[string]domain.InstrumentSpec{
	"BTC": {Symbol: "BTC", InstID: "BTC-USDT-SWAP",
		ContractValue: decimal.RequireFromString("0.01"),
		MinOrderSize:  decimal.RequireFromString("0.01"),
		SizeIncrement: decimal.RequireFromString("0.01")},
	"ETH": {Symbol: "ETH", InstID: "ETH-USDT-SWAP",
		ContractValue: decimal.RequireFromString("0.1"),
		MinOrderSize:  decimal.RequireFromString("0.01"),
		SizeIncrement: decimal.RequireFromString("0.01")},
	"SOL": {Symbol: "SOL", InstID: "SOL-USDT-SWAP",
		ContractValue: decimal.RequireFromString("1"),
		MinOrderSize:  decimal.RequireFromString("0.01"),
		SizeIncrement: decimal.RequireFromString("0.01")},
}

// InstrumentCache 合约规格缓存。
// 命中直接返回；过期或未命中时拉取；拉取失败时按
// 过期值 > 降级表 > 报错 的顺序回退，保证换算层尽量可用。
type InstrumentCache struct {
	exchange Exchange
	specs    *cache.InMemoryCache[string, *domain.InstrumentSpec]
	fees     *cache.InMemoryCache[string, *domain.FeeSchedule]
	mu       sync.Mutex // 防止同一 symbol 的并发重复拉取
}

// NewInstrumentCache 创建规格缓存
func NewInstrumentCache(exchange Exchange) *InstrumentCache {
	return NewInstrumentCacheWithClock(exchange, cache.RealClock())
}

// NewInstrumentCacheWithClock 注入时钟（测试用）
func NewInstrumentCacheWithClock(exchange Exchange, clock cache.Clock) *InstrumentCache {
	return &InstrumentCache{
		exchange: exchange,
		specs:    cache.NewInMemoryCacheWithClock[string, *domain.InstrumentSpec](InstrumentTTL, clock),
		fees:     cache.NewInMemoryCacheWithClock[string, *domain.FeeSchedule](FeeTTL, clock),
	}
}

// GetSpec 获取合约规格；TTL 内的重复调用不触发网络请求。
func (ic *InstrumentCache) GetSpec(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	key := strings.ToUpper(symbol)
	if spec, ok := ic.specs.Get(key); ok {
		return spec, nil
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	// 双检：等锁期间可能已被别的调用填上
	if spec, ok := ic.specs.Get(key); ok {
		return spec, nil
	}

	spec, err := ic.exchange.FetchInstrument(ctx, symbol)
	if err != nil {
		// 本地校验类错误（合约不存在）不回退，直接上抛
		if domain.KindOf(err) == domain.ErrKindValidation {
			return nil, err
		}
		if stale, ok, _ := ic.specs.GetStale(key); ok {
			instLog.Warnf("⚠️ [规格缓存] %s 刷新失败，沿用过期规格: %v", key, err)
			return stale, nil
		}
		if def, ok := defaultSpecs[key]; ok {
			instLog.Warnf("⚠️ [规格缓存] %s 拉取失败，使用降级规格表: %v", key, err)
			d := def
			return &d, nil
		}
		return nil, err
	}

	ic.specs.Set(key, spec, InstrumentTTL)
	instLog.Infof("📥 [规格缓存] %s 面值=%s 最小=%s 步长=%s",
		spec.InstID, spec.ContractValue, spec.MinOrderSize, spec.SizeIncrement)
	return spec, nil
}

// GetFees 获取费率表；拉取失败时沿用过期值，再不行返回 nil（估算费为 0）。
func (ic *InstrumentCache) GetFees(ctx context.Context) *domain.FeeSchedule {
	const key = "swap"
	if fees, ok := ic.fees.Get(key); ok {
		return fees
	}

	fees, err := ic.exchange.FeeRates(ctx)
	if err != nil {
		if stale, ok, _ := ic.fees.GetStale(key); ok {
			return stale
		}
		instLog.Warnf("⚠️ [费率缓存] 拉取失败，费用估算按 0 处理: %v", err)
		return nil
	}
	ic.fees.Set(key, fees, FeeTTL)
	return fees
}

// Invalidate 手工失效某个 symbol 的规格（规格变更公告后调用）
func (ic *InstrumentCache) Invalidate(symbol string) {
	ic.specs.Delete(strings.ToUpper(symbol))
}
