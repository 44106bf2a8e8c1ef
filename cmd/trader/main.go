package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/internal/execution"
	okxws "github.com/betbot/goperp/internal/infrastructure/websocket"
	okxclient "github.com/betbot/goperp/okx/client"
	"github.com/betbot/goperp/okx/transport"
	"github.com/betbot/goperp/pkg/config"
	"github.com/betbot/goperp/pkg/logger"
)

var log = logrus.WithField("component", "main")

const usage = `用法: trader [flags] <command> [args]

命令:
  balance                          查询余额
  positions                        查询持仓
  orders [symbol]                  查询挂单
  config                           查询账户配置
  open <symbol> <buy|sell> <usd>   市价开仓（名义额 USD）
  close <symbol>                   市价平掉该标的全部仓位
  cancel <symbol> <ordId>          撤单
  watch                            订阅标记价格流并打印
  routes                           显示网络路径配置

flags:
  -config path   配置文件（默认 config.yaml，不存在时用内置默认值）
  -paper         纸交易模式（不出网）
  -leverage n    开仓杠杆（默认取配置）
  -limit px      用限价单代替市价单
`

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	paper := flag.Bool("paper", false, "纸交易模式")
	leverage := flag.Int("leverage", 0, "开仓杠杆")
	limitPx := flag.Float64("limit", 0, "限价（0 为市价）")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// .env 不存在不是错误，生产环境直接用进程环境变量
	_ = godotenv.Load()

	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	if *paper {
		cfg.Execution.PaperMode = true
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, chain, err := buildService(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	if err := run(ctx, cfg, svc, chain, *leverage, *limitPx, flag.Args()); err != nil {
		log.Errorf("命令失败: %v", err)
		os.Exit(1)
	}
}

// buildService 组装执行服务：配置 → 回退链 → 客户端 → 适配器 → 服务
func buildService(cfg *config.Config) (*execution.Service, *transport.Chain, error) {
	opts := execution.Options{
		DefaultLeverage:   cfg.Execution.DefaultLeverage,
		DefaultMarginMode: domain.MarginMode(cfg.Execution.DefaultMarginMode),
		SkipPreCheck:      cfg.Execution.SkipPreCheck,
	}

	if cfg.Execution.PaperMode {
		paper := execution.NewPaperExchange(cfg.Execution.PaperBalance)
		log.Infof("📝 [启动] 纸交易模式，初始余额 %.2f USDT", cfg.Execution.PaperBalance)
		return execution.NewService(paper, execution.NewInstrumentCache(paper), opts), nil, nil
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return nil, nil, err
	}
	routes, err := cfg.BuildRoutes()
	if err != nil {
		return nil, nil, err
	}
	chain := transport.NewChain(cfg.ExchangeBaseURL, routes)
	cli := okxclient.New(creds, chain, nil)
	exchange := execution.NewOKXExchange(cli)
	return execution.NewService(exchange, execution.NewInstrumentCache(exchange), opts), chain, nil
}

func run(ctx context.Context, cfg *config.Config, svc *execution.Service, chain *transport.Chain, leverage int, limitPx float64, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "balance":
		bal, err := svc.GetBalance(ctx, "USDT")
		if err != nil {
			return err
		}
		fmt.Printf("%s  权益=%.2f  可用=%.2f  冻结=%.2f  未实现=%.2f\n",
			bal.Currency, bal.Equity, bal.Available, bal.Frozen, bal.Upl)
		return nil

	case "positions":
		positions, err := svc.GetOpenPositions(ctx)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("无持仓")
			return nil
		}
		for _, p := range positions {
			fmt.Printf("%-16s %-5s %10.2f张  %dx %s  均价=%.2f  未实现=%.2f  强平价=%.2f\n",
				p.InstID, p.Side, p.Contracts, p.Leverage, p.MarginMode, p.AveragePrice, p.UnrealizedPnl, p.LiqPrice)
		}
		return nil

	case "orders":
		symbol := ""
		if len(rest) > 0 {
			symbol = rest[0]
		}
		orders, err := svc.GetPendingOrders(ctx, symbol)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println("无挂单")
			return nil
		}
		for _, o := range orders {
			fmt.Printf("%-16s %-5s %-6s px=%.2f sz=%.2f filled=%.2f state=%s ordId=%s\n",
				o.InstID, o.Side, o.OrderType, o.Price, o.Size, o.FilledSize, o.State, o.OrderID)
		}
		return nil

	case "config":
		ac, err := svc.GetAccountConfig(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("账户层级=%s 仓位模式=%s\n", ac.AccountLevel, ac.PositionMode)
		return nil

	case "open":
		if len(rest) < 3 {
			return fmt.Errorf("用法: open <symbol> <buy|sell> <usd>")
		}
		notional, err := parseFloat(rest[2])
		if err != nil {
			return fmt.Errorf("名义额非法: %q", rest[2])
		}
		intent := &domain.TradeIntent{
			Symbol:      rest[0],
			Side:        domain.Side(strings.ToLower(rest[1])),
			NotionalUSD: notional,
			Leverage:    leverage,
			OrderType:   domain.OrderTypeMarket,
		}
		if limitPx > 0 {
			intent.OrderType = domain.OrderTypeLimit
			intent.LimitPrice = limitPx
		}
		return report(svc.Execute(ctx, intent))

	case "close":
		if len(rest) < 1 {
			return fmt.Errorf("用法: close <symbol>")
		}
		return closePosition(ctx, svc, rest[0])

	case "cancel":
		if len(rest) < 2 {
			return fmt.Errorf("用法: cancel <symbol> <ordId>")
		}
		if err := svc.CancelOrder(ctx, rest[0], rest[1], ""); err != nil {
			return err
		}
		fmt.Println("已撤单")
		return nil

	case "watch":
		return watchPrices(ctx, cfg)

	case "routes":
		if chain == nil {
			fmt.Println("纸交易模式，无网络路径")
			return nil
		}
		fmt.Println(chain.DescribeRoutes())
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("未知命令: %s", cmd)
	}
}

// closePosition 市价平掉某标的的全部净持仓
func closePosition(ctx context.Context, svc *execution.Service, symbol string) error {
	positions, err := svc.GetOpenPositions(ctx)
	if err != nil {
		return err
	}
	for _, p := range positions {
		if !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		side := domain.SideSell
		contracts := p.Contracts
		if contracts < 0 || p.Side == "short" {
			side = domain.SideBuy
			if contracts < 0 {
				contracts = -contracts
			}
		}
		// 张数换回币数量，走统一换算路径
		spec, err := svc.GetInstrumentSpec(ctx, p.Symbol)
		if err != nil {
			return err
		}
		coins, _ := spec.ToCoins(decimal.NewFromFloat(contracts)).Float64()
		return report(svc.Execute(ctx, &domain.TradeIntent{
			Symbol:        p.Symbol,
			Side:          side,
			QuantityCoins: coins,
			OrderType:     domain.OrderTypeMarket,
			ReduceOnly:    true,
		}))
	}
	return fmt.Errorf("没有 %s 的持仓", symbol)
}

func report(res *domain.OrderResult, err error) error {
	if err != nil {
		if res != nil && res.Remediation != "" {
			fmt.Printf("失败: %s\n提示: %s\n", res.ErrorMessage, res.Remediation)
			return err
		}
		return err
	}
	fmt.Printf("成交  ordId=%s clOrdId=%s 估算费=%.4f USD\n",
		res.OrderID, res.ClientOrderID, res.EstimatedFee)
	return nil
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("必须为正数")
	}
	return f, nil
}

// watchPrices 订阅标记价格流并周期性打印最新价，Ctrl-C 退出
func watchPrices(ctx context.Context, cfg *config.Config) error {
	instIDs := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		instIDs = append(instIDs, strings.ToUpper(s)+"-USDT-SWAP")
	}
	stream := okxws.NewMarkPriceStream("", instIDs)

	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("行情流退出: %v", err)
		}
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, id := range instIDs {
				if px, ok := stream.Price(id, 10*time.Second); ok {
					fmt.Printf("%-16s %.2f\n", id, px)
				}
			}
		}
	}
}
