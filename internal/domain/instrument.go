package domain

import "github.com/shopspring/decimal"

// InstrumentSpec 合约规格：把币数量换算成交易所张数所需的全部元数据。
// 条目在 TTL 内不可变；宁可用过期条目也不阻塞执行。
type InstrumentSpec struct {
	Symbol        string          // 标的，如 "BTC"
	InstID        string          // 交易所合约 ID，如 "BTC-USDT-SWAP"
	ContractValue decimal.Decimal // 一张合约对应的标的数量
	MinOrderSize  decimal.Decimal // 最小下单张数
	SizeIncrement decimal.Decimal // 张数步长
}

// ToContracts 把币数量换算成张数。
// 规则（全库统一口径）：
//   - 除以合约面值得到原始张数；
//   - 按 SizeIncrement 四舍五入到最近的整数倍；
//   - 四舍五入后非零但低于 MinOrderSize 的，抬到 MinOrderSize；
//   - 小于一个步长的数量保留为未舍入的小数张数，绝不收敛到零。
func (s *InstrumentSpec) ToContracts(coinQty decimal.Decimal) decimal.Decimal {
	if coinQty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if s.ContractValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	raw := coinQty.Div(s.ContractValue)

	// 小于一个步长：保留小数张数（碎单），交易所端决定是否接受
	if s.SizeIncrement.GreaterThan(decimal.Zero) && raw.LessThan(s.SizeIncrement) {
		return raw
	}

	contracts := raw
	if s.SizeIncrement.GreaterThan(decimal.Zero) {
		steps := raw.Div(s.SizeIncrement).Round(0)
		contracts = steps.Mul(s.SizeIncrement)
	}

	if contracts.GreaterThan(decimal.Zero) && contracts.LessThan(s.MinOrderSize) {
		contracts = s.MinOrderSize
	}
	return contracts
}

// ToCoins 张数换回币数量（用于成交回执的单位还原）
func (s *InstrumentSpec) ToCoins(contracts decimal.Decimal) decimal.Decimal {
	return contracts.Mul(s.ContractValue)
}
