package enums

import (
	"fmt"
	"strings"
)

// Currency represents a supported dispute denomination.
type Currency string

const (
	CurrencyUSD   Currency = "USD"
	CurrencyEUR   Currency = "EUR"
	CurrencyGBP   Currency = "GBP"
	CurrencyBTC   Currency = "BTC"
	CurrencyCKBTC Currency = "ckBTC"
	CurrencyICP   Currency = "ICP"
)

// CurrencyInfo describes how a currency is displayed.
type CurrencyInfo struct {
	Decimals int32
	Symbol   string
	// Suffix places the symbol after the amount ("1.5 ICP") instead of before.
	Suffix bool
}

// DefaultCurrencyDecimals applies to codes missing from the table.
const DefaultCurrencyDecimals int32 = 2

var currencyInfo = map[Currency]CurrencyInfo{
	CurrencyUSD:   {Decimals: 2, Symbol: "$"},
	CurrencyEUR:   {Decimals: 2, Symbol: "€"},
	CurrencyGBP:   {Decimals: 2, Symbol: "£"},
	CurrencyBTC:   {Decimals: 8, Symbol: "₿"},
	CurrencyCKBTC: {Decimals: 8, Symbol: "ckBTC", Suffix: true},
	CurrencyICP:   {Decimals: 8, Symbol: "ICP", Suffix: true},
}

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyBTC,
	CurrencyCKBTC,
	CurrencyICP,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	_, ok := currencyInfo[c]
	return ok
}

// Info returns display metadata. Unknown codes get two decimals and the code
// itself as a suffix symbol.
func (c Currency) Info() CurrencyInfo {
	if info, ok := currencyInfo[c]; ok {
		return info
	}
	return CurrencyInfo{Decimals: DefaultCurrencyDecimals, Symbol: string(c), Suffix: true}
}

// ParseCurrency converts a raw string into a Currency. Matching is
// case-insensitive so "ckbtc" resolves to ckBTC.
func ParseCurrency(value string) (Currency, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validCurrencies {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
