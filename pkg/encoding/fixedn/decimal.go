/*
Package fixedn implements fixed-point integer arithmetic helpers: scaling
integer amounts by a power of ten (wei and token units) and back, plus
decimal string conversions for scaled values.
*/
package fixedn

import (
	"errors"
	"math/big"
	"strings"
)

// DefaultDecimals is the number of decimals used by ether (1 ether = 10^18 wei)
// and by most ERC-20 tokens.
const DefaultDecimals = 18

var (
	// ErrOverflow is returned when an unscaled value doesn't fit into int64.
	ErrOverflow = errors.New("value overflows int64")

	errInvalidString = errors.New("fixed point number must have a format X.Y")
	errTooPrecise    = errors.New("too many fractional digits")
)

var bigTen = big.NewInt(10)

func pow10(n int) *big.Int {
	if n < 0 {
		panic("fixedn: negative number of decimals")
	}
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

// Scale returns amount multiplied by 10^decimals. It panics if decimals is
// negative.
func Scale(amount *big.Int, decimals int) *big.Int {
	return new(big.Int).Mul(amount, pow10(decimals))
}

// ScaleInt64 is the same as Scale, but for an int64 amount.
func ScaleInt64(amount int64, decimals int) *big.Int {
	return Scale(big.NewInt(amount), decimals)
}

// Unscale returns v divided by 10^decimals. The result is truncated toward
// zero, so Unscale(Scale(x, d), d) is always x.
func Unscale(v *big.Int, decimals int) *big.Int {
	return new(big.Int).Quo(v, pow10(decimals))
}

// UnscaleInt64 is the same as Unscale, but returns the result as int64 and
// ErrOverflow if it can't be represented as such.
func UnscaleInt64(v *big.Int, decimals int) (int64, error) {
	r := Unscale(v, decimals)
	if !r.IsInt64() {
		return 0, ErrOverflow
	}
	return r.Int64(), nil
}

// FromString parses s which must be a fixed point number with at most
// precision fractional digits and returns it scaled by 10^precision.
// "1.5" with precision 18 gives 1500000000000000000.
func FromString(s string, precision int) (*big.Int, error) {
	var neg bool
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	ip, fp, hasDot := strings.Cut(s, ".")
	if !isDigits(ip) && !(hasDot && ip == "") {
		return nil, errInvalidString
	}
	if hasDot && !isDigits(fp) {
		return nil, errInvalidString
	}
	if len(fp) > precision {
		return nil, errTooPrecise
	}
	digits := ip + fp + strings.Repeat("0", precision-len(fp))
	bi, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, errInvalidString
	}
	if neg {
		bi.Neg(bi)
	}
	return bi, nil
}

// ToString converts a value scaled by 10^precision to its decimal string
// representation without trailing fractional zeroes.
func ToString(v *big.Int, precision int) string {
	var (
		ip, fp = new(big.Int).QuoRem(new(big.Int).Abs(v), pow10(precision), new(big.Int))
		sb     strings.Builder
	)
	if v.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(ip.String())
	if fp.Sign() != 0 {
		frac := fp.String()
		sb.WriteByte('.')
		sb.WriteString(strings.Repeat("0", precision-len(frac)))
		sb.WriteString(strings.TrimRight(frac, "0"))
	}
	return sb.String()
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := range s {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
