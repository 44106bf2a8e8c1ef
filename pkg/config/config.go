// Package config 配置加载：YAML 文件 + 环境变量。
// 凭证只从环境变量读，配置文件里永远不出现密钥明文。
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/okx/signing"
	"github.com/betbot/goperp/okx/transport"
	"github.com/betbot/goperp/pkg/logger"
)

// RouteConfig 一条网络路径（顺序即回退顺序）
type RouteConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"` // direct / wrapproxy
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // 代理凭证所在的环境变量名
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ExecutionConfig 执行服务默认参数
type ExecutionConfig struct {
	DefaultLeverage   int     `yaml:"default_leverage"`
	DefaultMarginMode string  `yaml:"default_margin_mode"`
	SkipPreCheck      bool    `yaml:"skip_pre_check"`
	PaperMode         bool    `yaml:"paper_mode"`
	PaperBalance      float64 `yaml:"paper_balance"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Config 顶层配置
type Config struct {
	ExchangeBaseURL string          `yaml:"exchange_base_url"`
	Simulated       bool            `yaml:"simulated"` // 模拟盘（加 x-simulated-trading 头）
	Routes          []RouteConfig   `yaml:"routes"`
	Execution       ExecutionConfig `yaml:"execution"`
	Log             LogConfig       `yaml:"log"`
	Symbols         []string        `yaml:"symbols"` // 行情流订阅的标的
}

// Load 从 YAML 文件加载配置并校验。路径为空时使用内置默认值。
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "读取配置文件失败: %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "解析配置文件失败: %s", path)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ExchangeBaseURL: "https://www.okx.com",
		Routes: []RouteConfig{
			{Name: "direct", Kind: string(transport.RouteKindDirect), TimeoutMs: 10_000},
		},
		Execution: ExecutionConfig{
			DefaultLeverage:   3,
			DefaultMarginMode: string(domain.MarginModeCross),
			PaperBalance:      10_000,
		},
		Log:     LogConfig{Level: "info"},
		Symbols: []string{"BTC", "ETH"},
	}
}

func (c *Config) validate() error {
	if c.ExchangeBaseURL == "" {
		return errors.New("exchange_base_url 不能为空")
	}
	if len(c.Routes) == 0 {
		return errors.New("至少需要一条网络路径")
	}
	for i, r := range c.Routes {
		switch transport.RouteKind(r.Kind) {
		case transport.RouteKindDirect:
		case transport.RouteKindWrapProxy:
			if r.BaseURL == "" {
				return errors.Errorf("routes[%d] (%s): 代理路径缺少 base_url", i, r.Name)
			}
			if r.APIKeyEnv == "" {
				return errors.Errorf("routes[%d] (%s): 代理路径缺少 api_key_env", i, r.Name)
			}
		default:
			return errors.Errorf("routes[%d]: 未知路径类型 %q", i, r.Kind)
		}
	}
	if m := c.Execution.DefaultMarginMode; m != "" &&
		m != string(domain.MarginModeCross) && m != string(domain.MarginModeIsolated) {
		return errors.Errorf("非法保证金模式: %q", m)
	}
	if c.Execution.DefaultLeverage < 0 || c.Execution.DefaultLeverage > 125 {
		return errors.Errorf("默认杠杆越界: %d", c.Execution.DefaultLeverage)
	}
	return nil
}

// Credentials 从环境变量读交易所凭证。
// 变量名沿用交易所官方 SDK 的惯例，方便复用已有部署。
func (c *Config) Credentials() (signing.Credentials, error) {
	creds := signing.Credentials{
		APIKey:     os.Getenv("OKX_API_KEY"),
		Secret:     os.Getenv("OKX_SECRET_KEY"),
		Passphrase: os.Getenv("OKX_PASSPHRASE"),
		Simulated:  c.Simulated,
	}
	if c.Execution.PaperMode {
		return creds, nil // 纸交易不需要凭证
	}
	if creds.APIKey == "" || creds.Secret == "" || creds.Passphrase == "" {
		return creds, errors.New("缺少凭证: 需要 OKX_API_KEY / OKX_SECRET_KEY / OKX_PASSPHRASE")
	}
	return creds, nil
}

// BuildRoutes 把路径配置变成传输层 Route 列表（代理凭证从环境变量解引用）
func (c *Config) BuildRoutes() ([]transport.Route, error) {
	routes := make([]transport.Route, 0, len(c.Routes))
	for i, r := range c.Routes {
		timeout := time.Duration(r.TimeoutMs) * time.Millisecond
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		route := transport.Route{
			Name:    r.Name,
			Kind:    transport.RouteKind(r.Kind),
			BaseURL: r.BaseURL,
			Timeout: timeout,
		}
		if route.Kind == transport.RouteKindWrapProxy {
			key := os.Getenv(r.APIKeyEnv)
			if key == "" {
				return nil, errors.Errorf("routes[%d] (%s): 环境变量 %s 未设置", i, r.Name, r.APIKeyEnv)
			}
			route.APIKey = key
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// LoggerConfig 转成日志包配置
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		OutputFile: c.Log.OutputFile,
		MaxSize:    c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// EnvInt 读整型环境变量（解析失败用默认值）
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
