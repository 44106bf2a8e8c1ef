package domain

import "fmt"

// ErrorKind 执行错误分类
type ErrorKind string

const (
	// ErrKindNone 没有错误
	ErrKindNone ErrorKind = ""
	// ErrKindValidation 本地校验失败（价格越界、数量低于下限等），未发生网络调用
	ErrKindValidation ErrorKind = "validation"
	// ErrKindAuthFatal 认证失败：凭证/签名/环境错误，立即失败，绝不重试
	ErrKindAuthFatal ErrorKind = "auth-fatal"
	// ErrKindBusiness 业务拒绝：带交易所原始 code/msg 原样返回
	ErrKindBusiness ErrorKind = "business-rejection"
	// ErrKindTransport 传输失败：整条回退链耗尽
	ErrKindTransport ErrorKind = "transport-failure"
)

// ExecError 执行层错误：携带分类、交易所业务码和给运维的修复提示，
// 让调用方能一眼区分"配置错了"、"网络断了"和"单子不合法"。
type ExecError struct {
	Kind    ErrorKind
	Code    string // 交易所业务码（本地错误为空）
	Message string
	Hint    string // 已知错误码的修复提示
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Kind)
	if e.Code != "" {
		msg += fmt.Sprintf(" code=%s", e.Code)
	}
	msg += " " + e.Message
	if e.Hint != "" {
		msg += "（提示: " + e.Hint + "）"
	}
	return msg
}

// NewValidationError 本地校验错误
func NewValidationError(format string, args ...any) *ExecError {
	return &ExecError{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf 从 error 提取分类；非 ExecError 视为传输失败
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}
	if ee, ok := err.(*ExecError); ok {
		return ee.Kind
	}
	return ErrKindTransport
}
