package schema

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	CoreSymbolCode      = "SYS"
	CoreSymbolPrecision = 4

	RexSymbolCode      = "REX"
	RexSymbolPrecision = 4

	RamSymbolCode      = "RAM"
	RamSymbolPrecision = 0

	// pool key of the ram market row
	RamCoreSymbolCode      = "RAMCORE"
	RamCoreSymbolPrecision = 4

	MaxAssetAmount = int64(1) << 62
)

type Symbol struct {
	Code      string `json:"code"`
	Precision uint8  `json:"precision"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses the "4,SYS" form.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) != 2 {
		return Symbol{}, ErrBadAssetString
	}
	precision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, ErrBadAssetString
	}
	sym := Symbol{Code: parts[1], Precision: uint8(precision)}
	if !sym.Valid() {
		return Symbol{}, ErrBadAssetString
	}
	return sym, nil
}

func (s Symbol) Valid() bool {
	if len(s.Code) == 0 || len(s.Code) > 7 {
		return false
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func RexSymbol() Symbol {
	return Symbol{Code: RexSymbolCode, Precision: RexSymbolPrecision}
}

func RamSymbol() Symbol {
	return Symbol{Code: RamSymbolCode, Precision: RamSymbolPrecision}
}

func RamCoreSymbol() Symbol {
	return Symbol{Code: RamCoreSymbolCode, Precision: RamCoreSymbolPrecision}
}

// Asset is an integer magnitude paired with a symbol and fixed decimal
// precision. All arithmetic rejects symbol mismatches and overflow.
type Asset struct {
	Amount int64  `json:"amount"`
	Symbol Symbol `json:"symbol"`
}

func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// ParseAsset parses the "1.0000 SYS" form.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) != 2 {
		return Asset{}, ErrBadAssetString
	}
	sym := Symbol{Code: parts[1]}
	numStr := parts[0]
	var precision uint8
	if idx := strings.IndexByte(numStr, '.'); idx >= 0 {
		precision = uint8(len(numStr) - idx - 1)
		numStr = numStr[:idx] + numStr[idx+1:]
	}
	sym.Precision = precision
	if !sym.Valid() {
		return Asset{}, ErrBadAssetString
	}
	amount, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return Asset{}, ErrBadAssetString
	}
	if amount > MaxAssetAmount || amount < -MaxAssetAmount {
		return Asset{}, ErrAmountOverflow
	}
	return Asset{Amount: amount, Symbol: sym}, nil
}

func (a Asset) String() string {
	sign := ""
	amount := a.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	p := int64(math.Pow10(int(a.Symbol.Precision)))
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, amount, a.Symbol.Code)
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/p, int(a.Symbol.Precision), amount%p, a.Symbol.Code)
}

func (a Asset) IsPositive() bool { return a.Amount > 0 }

func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, ErrSymbolMismatch
	}
	sum, err := AddInt64(a.Amount, b.Amount)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, nil
}

func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, ErrSymbolMismatch
	}
	diff, err := AddInt64(a.Amount, -b.Amount)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Amount: diff, Symbol: a.Symbol}, nil
}

func AddInt64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrAmountOverflow
	}
	if sum > MaxAssetAmount || sum < -MaxAssetAmount {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// MulDiv computes a*b/c with 128-bit intermediates so the
// multiply-before-divide step cannot overflow.
func MulDiv(a, b, c int64) (int64, error) {
	if c == 0 {
		return 0, ErrAmountOverflow
	}
	n := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	n.Quo(n, big.NewInt(c))
	if !n.IsInt64() {
		return 0, ErrAmountOverflow
	}
	out := n.Int64()
	if out > MaxAssetAmount || out < -MaxAssetAmount {
		return 0, ErrAmountOverflow
	}
	return out, nil
}
