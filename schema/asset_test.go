package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbol(t *testing.T) {
	sym, err := ParseSymbol("4,SYS")
	assert.NoError(t, err)
	assert.Equal(t, Symbol{Code: "SYS", Precision: 4}, sym)
	assert.Equal(t, "4,SYS", sym.String())

	_, err = ParseSymbol("SYS")
	assert.Equal(t, ErrBadAssetString, err)
	_, err = ParseSymbol("x,SYS")
	assert.Equal(t, ErrBadAssetString, err)
	_, err = ParseSymbol("4,sys")
	assert.Equal(t, ErrBadAssetString, err)
	_, err = ParseSymbol("4,TOOLONGCODE")
	assert.Equal(t, ErrBadAssetString, err)
}

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("1.0000 SYS")
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), a.Amount)
	assert.Equal(t, Symbol{Code: "SYS", Precision: 4}, a.Symbol)
	assert.Equal(t, "1.0000 SYS", a.String())

	a, err = ParseAsset("42 RAM")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), a.Amount)
	assert.Equal(t, uint8(0), a.Symbol.Precision)
	assert.Equal(t, "42 RAM", a.String())

	a, err = ParseAsset("-0.5000 SYS")
	assert.NoError(t, err)
	assert.Equal(t, int64(-5000), a.Amount)
	assert.Equal(t, "-0.5000 SYS", a.String())

	for _, bad := range []string{"", "1.0000", "1.0000SYS", "1.0000 sys", "x.0000 SYS"} {
		_, err = ParseAsset(bad)
		assert.Error(t, err, bad)
	}
}

func TestAssetAddSub(t *testing.T) {
	sys := Symbol{Code: "SYS", Precision: 4}
	a := NewAsset(10000, sys)
	b := NewAsset(2500, sys)

	sum, err := a.Add(b)
	assert.NoError(t, err)
	assert.Equal(t, int64(12500), sum.Amount)

	diff, err := a.Sub(b)
	assert.NoError(t, err)
	assert.Equal(t, int64(7500), diff.Amount)

	_, err = a.Add(NewAsset(1, Symbol{Code: "REX", Precision: 4}))
	assert.Equal(t, ErrSymbolMismatch, err)

	_, err = NewAsset(MaxAssetAmount, sys).Add(NewAsset(1, sys))
	assert.Equal(t, ErrAmountOverflow, err)
}

func TestMulDiv(t *testing.T) {
	out, err := MulDiv(10, 3, 4)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), out)

	// intermediate a*b overflows int64 but the quotient fits
	big := int64(1) << 40
	out, err = MulDiv(big, big, big)
	assert.NoError(t, err)
	assert.Equal(t, big, out)

	_, err = MulDiv(MaxAssetAmount, 2, 1)
	assert.Equal(t, ErrAmountOverflow, err)
	_, err = MulDiv(1, 1, 0)
	assert.Equal(t, ErrAmountOverflow, err)
}

func TestRexMaturityDate(t *testing.T) {
	now := int64(1_700_000_000)
	date := RexMaturityDate(now)
	assert.Equal(t, int64(0), date%SecondsPerDay)
	assert.Equal(t, now-now%SecondsPerDay+RexMaturityBuckets*SecondsPerDay, date)
}

func TestRexBalanceInvariant(t *testing.T) {
	b := &RexBalance{Owner: "alice", RexBalance: 100, MaturedRex: 40, SavingsRex: 10}
	b.SetMaturityBuckets([]RexMaturity{{Date: 1, Amount: 50}})
	assert.NoError(t, b.CheckInvariant())

	b.MaturedRex = 41
	assert.Equal(t, ErrInconsistentMaturities, b.CheckInvariant())
}
