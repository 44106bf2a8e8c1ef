package client

// remediationHints 已知业务错误码 → 运维修复提示。
// 目的：让操作者一眼区分"配置错了"、"账户状态不对"和"单子本身不合法"。
var remediationHints = map[string]string{
	// 认证/环境
	"50100": "API 已被冻结，联系交易所客服",
	"50101": "APIKey 与环境不匹配：检查是否把模拟盘 key 用在了实盘（或相反）",
	"50102": "请求时间戳过期：检查本机时钟漂移（NTP）",
	"50105": "Passphrase 错误：核对配置里的 passphrase",
	"50111": "APIKey 无效：核对 key 是否拼写完整、未过期",
	"50113": "签名无效：核对 secret 与签名拼接顺序",
	"50119": "APIKey 不存在：确认在当前环境（实盘/模拟盘）创建过该 key",

	// 业务拒绝
	"51000": "参数错误：检查请求字段名大小写与取值",
	"51008": "下单金额超过可用保证金：减小下单量或追加保证金",
	"51010": "当前账户模式不支持该操作：到交易所后台切换账户模式",
	"51020": "下单数量低于最小下单量：检查合约 minSz",
	"51094": "止盈止损参数不合法：检查触发价与委托价的方向关系",
	"51119": "下单失败：可用余额不足以支付开仓保证金",
	"51121": "下单张数必须是步长的整数倍：检查 lotSz 换算",
	"51202": "市价单数量超过单笔上限：拆单或改用限价",
	"51400": "撤单失败：订单不存在或已成交/已撤销",
	"59000": "设置失败：先撤销挂单/平仓后再修改该配置",
	"59102": "杠杆超过最大可用杠杆：降低杠杆倍数",
}

// RemediationFor 返回已知错误码的修复提示，未知返回空串
func RemediationFor(code string) string {
	return remediationHints[code]
}
