package domain

// OrderResult 一次执行的归一化结果。
// success 与 error 字段互斥：Success 为 true 时错误字段为零值，反之亦然。
type OrderResult struct {
	Success        bool
	OrderID        string
	ClientOrderID  string
	FilledQuantity float64 // 已成交币数量（市价单通常为全部）
	AveragePrice   float64
	EstimatedFee   float64 // 按缓存费率表估算（USD），供下游记账
	ErrorKind      ErrorKind
	ErrorMessage   string
	Remediation    string // 已知错误码的修复提示
	RawResponse    string // 交易所原始响应（诊断用）
}

// Failed 从错误构造失败结果
func FailedResult(err error, raw string) *OrderResult {
	r := &OrderResult{Success: false, RawResponse: raw}
	if ee, ok := err.(*ExecError); ok {
		r.ErrorKind = ee.Kind
		r.ErrorMessage = ee.Message
		r.Remediation = ee.Hint
		if ee.Code != "" {
			r.ErrorMessage = "code=" + ee.Code + ": " + ee.Message
		}
	} else if err != nil {
		r.ErrorKind = ErrKindTransport
		r.ErrorMessage = err.Error()
	}
	return r
}
