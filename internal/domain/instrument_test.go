package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func spec(cv, min, inc string) *InstrumentSpec {
	return &InstrumentSpec{
		Symbol:        "BTC",
		InstID:        "BTC-USDT-SWAP",
		ContractValue: decimal.RequireFromString(cv),
		MinOrderSize:  decimal.RequireFromString(min),
		SizeIncrement: decimal.RequireFromString(inc),
	}
}

func TestToContracts_ExactMultiple(t *testing.T) {
	// {ctVal=0.01, lotSz=0.01, minSz=0.01}，0.1 币 = 恰好 10 张
	s := spec("0.01", "0.01", "0.01")
	got := s.ToContracts(decimal.RequireFromString("0.1"))
	require.True(t, got.Equal(decimal.NewFromInt(10)), "expected 10 contracts, got %s", got)
}

func TestToContracts_SubIncrementPreservedFractional(t *testing.T) {
	// 0.002 币 / 0.01 面值 = 0.2 张，低于 1 张步长：保留小数，绝不归零
	s := spec("0.01", "1", "1")
	got := s.ToContracts(decimal.RequireFromString("0.002"))
	require.False(t, got.IsZero(), "sub-increment quantity must not collapse to zero")
	require.True(t, got.Equal(decimal.RequireFromString("0.2")), "expected 0.2, got %s", got)
}

func TestToContracts_RaisedToMinimum(t *testing.T) {
	// 舍入后非零但低于 minSz：抬到 minSz
	s := spec("0.001", "10", "1")
	got := s.ToContracts(decimal.RequireFromString("0.003")) // 3 张 < min 10
	require.True(t, got.Equal(decimal.NewFromInt(10)), "expected raise to min 10, got %s", got)
}

func TestToContracts_MultipleOfIncrement(t *testing.T) {
	s := spec("0.01", "0.1", "0.1")
	qtys := []string{"0.0151", "0.02", "0.5", "1.2345", "7.77"}
	for _, q := range qtys {
		got := s.ToContracts(decimal.RequireFromString(q))
		if got.LessThan(s.SizeIncrement) {
			continue // 碎单路径，允许非整数倍
		}
		rem := got.Mod(s.SizeIncrement)
		require.True(t, rem.IsZero(), "qty=%s: %s is not a multiple of increment", q, got)
		require.True(t, got.GreaterThanOrEqual(s.MinOrderSize), "qty=%s below min", q)
	}
}

func TestToContracts_RoundTripWithinOneIncrement(t *testing.T) {
	s := spec("0.01", "0.1", "0.1")
	qty := decimal.RequireFromString("0.1234")
	contracts := s.ToContracts(qty)
	back := s.ToCoins(contracts)

	// 还原值与原始值的偏差不超过一个步长对应的币量
	tolerance := s.SizeIncrement.Mul(s.ContractValue)
	diff := back.Sub(qty).Abs()
	require.True(t, diff.LessThanOrEqual(tolerance),
		"round-trip drift %s exceeds one increment (%s)", diff, tolerance)
}

func TestToContracts_ZeroAndNegative(t *testing.T) {
	s := spec("0.01", "0.1", "0.1")
	require.True(t, s.ToContracts(decimal.Zero).IsZero())
	require.True(t, s.ToContracts(decimal.NewFromInt(-1)).IsZero())
}

func TestExecError_Message(t *testing.T) {
	e := &ExecError{Kind: ErrKindBusiness, Code: "51008", Message: "Insufficient balance", Hint: "检查可用保证金"}
	msg := e.Error()
	require.Contains(t, msg, "51008")
	require.Contains(t, msg, "Insufficient balance")
	require.Contains(t, msg, "检查可用保证金")
}
