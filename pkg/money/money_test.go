package money

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestFormatCurrencies(t *testing.T) {
	cases := []struct {
		minor    int64
		currency string
		want     string
	}{
		{125000, "USD", "$1,250.00"},
		{5, "USD", "$0.05"},
		{-125000, "USD", "-$1,250.00"},
		{99999999, "EUR", "€999,999.99"},
		{100, "GBP", "£1.00"},
		{150000000, "ICP", "1.50000000 ICP"},
		{2500, "ckBTC", "0.00002500 ckBTC"},
		{100000000, "BTC", "₿1.00000000"},
		{123456, "XYZ", "1,234.56 XYZ"},
		{0, "usd", "$0.00"},
	}
	for _, tc := range cases {
		if got := Format(big.NewInt(tc.minor), tc.currency); got != tc.want {
			t.Fatalf("Format(%d, %s): expected %q got %q", tc.minor, tc.currency, tc.want, got)
		}
	}
}

func TestFormatLargeAmountKeepsPrecision(t *testing.T) {
	minor, ok := new(big.Int).SetString("123456789012345678901234567", 10)
	if !ok {
		t.Fatal("bad fixture")
	}
	want := "$1,234,567,890,123,456,789,012,345.67"
	if got := Format(minor, "USD"); got != want {
		t.Fatalf("expected %q got %q", want, got)
	}
}

func TestFormatNilAmount(t *testing.T) {
	if got := Format(nil, "USD"); got != "$0.00" {
		t.Fatalf("expected zero amount, got %q", got)
	}
}

func TestFromMajorUnitsRejectsExcessPrecision(t *testing.T) {
	if _, err := FromMajorUnits(decimal.RequireFromString("1.005"), 2); err == nil {
		t.Fatal("expected error for three fractional digits at two decimals")
	}
	got, err := ParseMajorUnits("1250.00", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(125000)) != 0 {
		t.Fatalf("expected 125000 got %s", got)
	}
	if _, err := ParseMajorUnits("abc", 2); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatPlain(t *testing.T) {
	if got := FormatPlain(big.NewInt(150000000), 8); got != "1.50000000" {
		t.Fatalf("unexpected plain format %q", got)
	}
}

func TestUnitConversionRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("minor -> major -> minor is exact", prop.ForAll(
		func(minor int64, decimals int32) bool {
			original := big.NewInt(minor)
			back, err := FromMajorUnits(ToMajorUnits(original, decimals), decimals)
			return err == nil && back.Cmp(original) == 0
		},
		gen.Int64(),
		gen.Int32Range(0, 18),
	))

	properties.Property("major -> minor -> major is exact for representable values", prop.ForAll(
		func(units int64, decimals int32) bool {
			major := decimal.New(units, -decimals)
			minor, err := FromMajorUnits(major, decimals)
			if err != nil {
				return false
			}
			return ToMajorUnits(minor, decimals).Equal(major)
		},
		gen.Int64(),
		gen.Int32Range(0, 18),
	))

	properties.TestingRun(t)
}
