package signing

import "time"

// Credentials API 凭证（来自进程配置，日志里只允许出现截断前缀）
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
	Simulated  bool // 模拟盘环境
}

// 认证头名称
const (
	HeaderAPIKey     = "OK-ACCESS-KEY"
	HeaderSign       = "OK-ACCESS-SIGN"
	HeaderTimestamp  = "OK-ACCESS-TIMESTAMP"
	HeaderPassphrase = "OK-ACCESS-PASSPHRASE"
	HeaderSimulated  = "x-simulated-trading"
)

// Headers 为一次请求生成完整的认证头集合。
// 纯函数：同样输入产出同样的头；时间戳由调用方传入，
// 每次网络尝试前必须用新的时间戳重新调用。
func Headers(creds Credentials, timestamp, method, requestPath, body string) map[string]string {
	h := map[string]string{
		"Content-Type":   "application/json",
		HeaderAPIKey:     creds.APIKey,
		HeaderSign:       SignTimestamp(creds.Secret, timestamp, method, requestPath, body),
		HeaderTimestamp:  timestamp,
		HeaderPassphrase: creds.Passphrase,
	}
	if creds.Simulated {
		h[HeaderSimulated] = "1"
	}
	return h
}

// HeadersNow 用当前时间生成认证头
func HeadersNow(creds Credentials, method, requestPath, body string) map[string]string {
	return Headers(creds, TimestampMillis(time.Now()), method, requestPath, body)
}
