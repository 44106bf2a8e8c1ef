package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Scheme 签名规范化方式。不同交易所适配器选择各自的方案。
type Scheme int

const (
	// SchemeTimestampHMAC 方案 (a)：ISO-8601 时间戳 + 大写 method + path + 原始 body
	// 拼接后 HMAC-SHA256，base64 编码。
	SchemeTimestampHMAC Scheme = iota
	// SchemeSortedParamsHMAC 方案 (b)：参数按 key 字典序排序，拼成 key=value&...
	// 后 HMAC-SHA256，hex 编码。
	SchemeSortedParamsHMAC
)

// TimestampMillis 生成签名用的 ISO-8601 毫秒时间戳（UTC）。
// 时间戳是签名材料的一部分，每次请求必须重新生成，过期签名会被拒绝。
func TimestampMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// SignTimestamp 按方案 (a) 计算签名。
// message = timestamp + 大写(method) + requestPath(含 query) + body
func SignTimestamp(secret, timestamp, method, requestPath, body string) string {
	message := timestamp + strings.ToUpper(method) + requestPath + body

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignSortedParams 按方案 (b) 计算签名。
// 参数按 key 字典序排序后拼接为 key=value&...，HMAC-SHA256 后 hex 编码。
func SignSortedParams(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	message := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
