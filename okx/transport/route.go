package transport

import "time"

// RouteKind 网络路径类型
type RouteKind string

const (
	// RouteKindDirect 直连交易所
	RouteKindDirect RouteKind = "direct"
	// RouteKindWrapProxy 包装型 HTTP 代理：目标 URL 和原始请求头作为代理自身的参数传递。
	// 这类代理默认会丢弃转发请求的头，必须显式带上 keep_headers，
	// 否则认证头在途中被静默剥离。
	RouteKindWrapProxy RouteKind = "wrapproxy"
)

// Route 一条网络路径的静态配置。
// 路径顺序是配置数据而不是代码分支：增删/调整顺序只改配置。
type Route struct {
	Name    string        // 日志里的路径名
	Kind    RouteKind     // direct / wrapproxy
	BaseURL string        // direct: 交易所 REST 主机（可为空，取 chain 级默认）；wrapproxy: 代理服务入口
	APIKey  string        // 代理服务凭证（direct 为空）
	Timeout time.Duration // 本路径的单次请求超时（直连短、代理长）
}
