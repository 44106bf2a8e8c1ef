package transport

import (
	"net/http"
	"strings"
)

// Kind 响应分类结果
type Kind int

const (
	// KindSuccess 结构化成功响应
	KindSuccess Kind = iota
	// KindRetryableNetwork 瞬时网络错误：同一路径上有限次退避重试
	KindRetryableNetwork
	// KindEscalateProxy 地理封锁信号：立即切换到下一条路径
	KindEscalateProxy
	// KindAuthFatal 认证错误：不重试（重试浪费时间且可能触发封禁）
	KindAuthFatal
	// KindBusinessRejection 业务拒绝：原样返回调用方，重试无效单没有意义
	KindBusinessRejection
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetryableNetwork:
		return "retryable-network"
	case KindEscalateProxy:
		return "escalate-proxy"
	case KindAuthFatal:
		return "auth-fatal"
	case KindBusinessRejection:
		return "business-rejection"
	default:
		return "unknown"
	}
}

// 认证类业务码：签名/密钥/时间戳/环境错误，全部不可重试
var authFatalCodes = map[string]bool{
	"50100": true, // API 被冻结
	"50101": true, // APIKey 与环境不匹配（实盘/模拟盘）
	"50102": true, // 请求时间戳过期
	"50103": true, // 请求头缺少 OK-ACCESS-KEY
	"50104": true, // 请求头缺少 OK-ACCESS-PASSPHRASE
	"50105": true, // OK-ACCESS-PASSPHRASE 错误
	"50111": true, // OK-ACCESS-KEY 无效
	"50113": true, // 签名无效
	"50114": true, // 请求头缺少 OK-ACCESS-SIGN
	"50119": true, // APIKey 不存在
}

// Classify 纯函数：HTTP 状态码 + 交易所业务码 + 消息 → 分类。
// httpStatus 为 0 表示请求根本没有得到 HTTP 响应（连接错误/超时）。
func Classify(httpStatus int, exchangeCode string, message string) Kind {
	// 没拿到响应：瞬时网络错误
	if httpStatus == 0 {
		return KindRetryableNetwork
	}

	// 期望 JSON 却拿到 HTML 错误页：地理封锁信号，换路径
	if LooksLikeHTML(message) {
		return KindEscalateProxy
	}

	if authFatalCodes[exchangeCode] {
		return KindAuthFatal
	}

	switch {
	case httpStatus == http.StatusUnauthorized:
		return KindAuthFatal
	case httpStatus == http.StatusForbidden:
		// JSON 403 多为权限问题；HTML 403 已在上面按封锁处理
		return KindAuthFatal
	case httpStatus == http.StatusTooManyRequests,
		httpStatus == http.StatusRequestTimeout,
		httpStatus >= 500:
		return KindRetryableNetwork
	}

	// 限流业务码（HTTP 200 也可能携带）
	if exchangeCode == "50011" {
		return KindRetryableNetwork
	}

	if httpStatus >= 200 && httpStatus < 300 {
		if exchangeCode == "" || exchangeCode == "0" {
			return KindSuccess
		}
		return KindBusinessRejection
	}

	return KindBusinessRejection
}

// LooksLikeHTML 判断 body 是否是 HTML 错误页（而不是期望的结构化 JSON）
func LooksLikeHTML(body string) bool {
	s := strings.TrimSpace(body)
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(lower, "<head") ||
		strings.HasPrefix(lower, "<body")
}
