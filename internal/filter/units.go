package filter

import (
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"
)

const (
	kilo = 1000
	kibi = 1024
)

// unitScales maps lower-cased unit suffixes to their multiplier.
// A trailing "b" after a scaled unit is tolerated ("kb", "kib").
var unitScales = map[string]uint64{
	"":    1,
	"b":   1,
	"k":   kilo,
	"kb":  kilo,
	"m":   kilo * kilo,
	"mb":  kilo * kilo,
	"g":   kilo * kilo * kilo,
	"gb":  kilo * kilo * kilo,
	"t":   kilo * kilo * kilo * kilo,
	"tb":  kilo * kilo * kilo * kilo,
	"ki":  kibi,
	"kib": kibi,
	"mi":  kibi * kibi,
	"mib": kibi * kibi,
	"gi":  kibi * kibi * kibi,
	"gib": kibi * kibi * kibi,
	"ti":  kibi * kibi * kibi * kibi,
	"tib": kibi * kibi * kibi * kibi,
}

// ParseByteCount converts a quantity such as "10k", "2.5Gi" or "512" to bytes.
// Decimal units scale by powers of 1000, binary units ("ki".."ti") by powers of 1024.
// Fractional results are truncated toward zero.
func ParseByteCount(text string) (uint64, error) {
	end := 0
	for end < len(text) && (isDigit(text[end]) || text[end] == '.') {
		end++
	}
	mantissa, unit := text[:end], strings.ToLower(text[end:])

	if !validMantissa(mantissa) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}

	scale, ok := unitScales[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, text[end:])
	}

	if !strings.Contains(mantissa, ".") {
		n, err := strconv.ParseUint(mantissa, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrOverflow, text)
		}
		hi, lo := bits.Mul64(n, scale)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %s", ErrOverflow, text)
		}
		return lo, nil
	}

	r, ok := new(big.Rat).SetString(mantissa)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	r.Mul(r, new(big.Rat).SetUint64(scale))
	whole := new(big.Int).Quo(r.Num(), r.Denom())
	if !whole.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, text)
	}
	return whole.Uint64(), nil
}

// validMantissa accepts digits with at most one decimal point and at least one digit.
func validMantissa(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case isDigit(s[i]):
			digits++
		case s[i] == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
