package execution

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/internal/domain"
)

var paperLog = logrus.WithField("component", "paper")

// PaperExchange 纸交易实现：不出网，订单立即"成交"，持仓记在内存里。
// 策略联调和回归测试用；规格表复用降级表，价格由调用方注入。
type PaperExchange struct {
	mu        sync.Mutex
	prices    map[string]float64
	positions map[string]*domain.Position
	pending   map[string]*domain.PendingOrder
	balance   float64
	leverage  map[string]int
	fees      domain.FeeSchedule
}

// NewPaperExchange 创建纸交易所，初始余额以 USDT 计
func NewPaperExchange(initialBalance float64) *PaperExchange {
	return &PaperExchange{
		prices:    make(map[string]float64),
		positions: make(map[string]*domain.Position),
		pending:   make(map[string]*domain.PendingOrder),
		balance:   initialBalance,
		leverage:  make(map[string]int),
		fees:      domain.FeeSchedule{Maker: 0.0002, Taker: 0.0005},
	}
}

// SetPrice 注入行情价
func (p *PaperExchange) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[strings.ToUpper(symbol)] = price
}

func (p *PaperExchange) Name() string { return "paper" }

func (p *PaperExchange) FormatSymbol(symbol string) string {
	return strings.ToUpper(symbol) + "-USDT-SWAP"
}

func (p *PaperExchange) FetchInstrument(_ context.Context, symbol string) (*domain.InstrumentSpec, error) {
	key := strings.ToUpper(symbol)
	if spec, ok := defaultSpecs[key]; ok {
		s := spec
		return &s, nil
	}
	// 未知标的给一个 1:1 的通用规格
	return &domain.InstrumentSpec{
		Symbol:        key,
		InstID:        p.FormatSymbol(symbol),
		ContractValue: decimal.NewFromInt(1),
		MinOrderSize:  decimal.RequireFromString("0.01"),
		SizeIncrement: decimal.RequireFromString("0.01"),
	}, nil
}

func (p *PaperExchange) ReferencePrice(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.prices[strings.ToUpper(symbol)]
	if !ok {
		return 0, domain.NewValidationError("纸交易无行情: %s", symbol)
	}
	return price, nil
}

func (p *PaperExchange) Balance(_ context.Context, ccy string) (*domain.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ccy == "" {
		ccy = "USDT"
	}
	return &domain.Balance{Currency: ccy, Equity: p.balance, Available: p.balance}, nil
}

func (p *PaperExchange) Positions(context.Context) ([]domain.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	return out, nil
}

func (p *PaperExchange) PendingOrders(_ context.Context, symbol string) ([]domain.PendingOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.PendingOrder, 0, len(p.pending))
	for _, o := range p.pending {
		if symbol == "" || strings.EqualFold(o.Symbol, symbol) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (p *PaperExchange) AccountConfig(context.Context) (*domain.AccountConfig, error) {
	return &domain.AccountConfig{AccountLevel: "2", PositionMode: "net_mode"}, nil
}

func (p *PaperExchange) Leverage(_ context.Context, symbol string, _ domain.MarginMode) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.leverage[strings.ToUpper(symbol)]; ok {
		return l, nil
	}
	return 3, nil
}

func (p *PaperExchange) SetLeverage(_ context.Context, symbol string, _ domain.MarginMode, leverage int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leverage[strings.ToUpper(symbol)] = leverage
	return nil
}

func (p *PaperExchange) MaxOrderSize(context.Context, string, domain.MarginMode) (float64, float64, error) {
	return 1e9, 1e9, nil
}

func (p *PaperExchange) MaxAvailSize(context.Context, string, domain.MarginMode) (float64, float64, error) {
	return 1e9, 1e9, nil
}

func (p *PaperExchange) FeeRates(context.Context) (*domain.FeeSchedule, error) {
	f := p.fees
	return &f, nil
}

// PlaceOrder 立即按注入价"成交"，更新内存持仓
func (p *PaperExchange) PlaceOrder(ctx context.Context, req *OrderRequest) (*domain.OrderResult, error) {
	price, err := p.ReferencePrice(ctx, req.Symbol)
	if err != nil && req.OrderType == domain.OrderTypeLimit {
		price, err = req.Price, nil
	}
	if err != nil {
		return domain.FailedResult(err, ""), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToUpper(req.Symbol)
	contracts, _ := req.Contracts.Float64()
	delta := contracts
	if req.Side == domain.SideSell {
		delta = -contracts
	}

	pos := p.positions[key]
	if pos == nil {
		pos = &domain.Position{
			Symbol:     key,
			InstID:     p.FormatSymbol(req.Symbol),
			Side:       "net",
			MarginMode: req.MarginMode,
			Leverage:   p.leverage[key],
		}
		p.positions[key] = pos
	}
	pos.Contracts += delta
	pos.AveragePrice = price
	if pos.Contracts == 0 {
		delete(p.positions, key)
	}

	ordID := uuid.NewString()
	paperLog.Infof("📝 [纸交易] %s %s %s张 @%.2f ordId=%s", key, req.Side, req.Contracts, price, ordID)
	return &domain.OrderResult{
		Success:       true,
		OrderID:       ordID,
		ClientOrderID: req.ClientOrderID,
		AveragePrice:  price,
	}, nil
}

func (p *PaperExchange) PlaceBatch(ctx context.Context, reqs []*OrderRequest) ([]*domain.OrderResult, error) {
	out := make([]*domain.OrderResult, 0, len(reqs))
	for _, r := range reqs {
		res, _ := p.PlaceOrder(ctx, r)
		out = append(out, res)
	}
	return out, nil
}

func (p *PaperExchange) PlaceAlgo(_ context.Context, req *AlgoRequest) (*domain.OrderResult, error) {
	ordID := uuid.NewString()
	paperLog.Infof("📝 [纸交易] %s 条件单 %s张 ordId=%s", req.Symbol, req.Contracts, ordID)
	return &domain.OrderResult{Success: true, OrderID: ordID, ClientOrderID: req.ClientOrderID}, nil
}

func (p *PaperExchange) CancelOrder(_ context.Context, _ string, orderID, clientOrderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, o := range p.pending {
		if o.OrderID == orderID || (clientOrderID != "" && o.ClientOrderID == clientOrderID) {
			delete(p.pending, k)
			return nil
		}
	}
	return &domain.ExecError{Kind: domain.ErrKindBusiness, Message: "订单不存在: " + orderID}
}

func (p *PaperExchange) BatchLimit() int { return 20 }
