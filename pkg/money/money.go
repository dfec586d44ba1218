// Package money converts between integer minor units and decimal major units
// and renders display strings. All arithmetic stays in integers.
package money

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ToMajorUnits divides minor by 10^decimals without any float step.
func ToMajorUnits(minor *big.Int, decimals int32) decimal.Decimal {
	if minor == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(minor, -decimals)
}

// FromMajorUnits multiplies major by 10^decimals. Values carrying more
// fractional digits than decimals are rejected instead of rounded.
func FromMajorUnits(major decimal.Decimal, decimals int32) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("decimals must be non-negative, got %d", decimals)
	}
	shifted := major.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d fractional digits", major.String(), decimals)
	}
	return shifted.BigInt(), nil
}

// ParseMajorUnits parses user input such as "1250.00" into minor units.
func ParseMajorUnits(value string, decimals int32) (*big.Int, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return FromMajorUnits(parsed, decimals)
}

// FormatPlain renders minor units with a fixed number of fractional digits
// and no grouping, e.g. 150000000 at 8 decimals is "1.50000000".
func FormatPlain(minor *big.Int, decimals int32) string {
	return ToMajorUnits(minor, decimals).StringFixed(decimals)
}

// Format renders an amount for display using the currency table. Known fiat
// codes take a leading symbol ("$1,250.00"); token codes and unknown codes
// are suffixed ("1.50000000 ICP").
func Format(minor *big.Int, currency string) string {
	code := enums.Currency(strings.TrimSpace(currency))
	if parsed, err := enums.ParseCurrency(currency); err == nil {
		code = parsed
	}
	info := code.Info()

	fixed := FormatPlain(minor, info.Decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")
	grouped := groupThousands(whole)
	if frac != "" {
		grouped += "." + frac
	}

	sign := ""
	if negative {
		sign = "-"
	}
	if info.Suffix {
		if info.Symbol == "" {
			return sign + grouped
		}
		return sign + grouped + " " + info.Symbol
	}
	return sign + info.Symbol + grouped
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
