package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Nat is an arbitrary-precision integer as sent by the gateway: a JSON number
// or a decimal string, optionally with Candid "_" digit separators. Signed
// values are tolerated so timestamps can share the type.
type Nat struct {
	v *big.Int
}

// NewNat wraps an int64.
func NewNat(v int64) Nat {
	return Nat{v: big.NewInt(v)}
}

// NatFromBig copies a big.Int. A nil input yields zero.
func NatFromBig(v *big.Int) Nat {
	if v == nil {
		return Nat{}
	}
	return Nat{v: new(big.Int).Set(v)}
}

// Big returns a copy of the value. The zero Nat returns 0.
func (n Nat) Big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

// Int64 returns the value clamped to the int64 range.
func (n Nat) Int64() int64 {
	if n.v == nil {
		return 0
	}
	if n.v.IsInt64() {
		return n.v.Int64()
	}
	if n.v.Sign() < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

// String implements fmt.Stringer.
func (n Nat) String() string {
	return n.Big().String()
}

// MarshalJSON emits a bare JSON number.
func (n Nat) MarshalJSON() ([]byte, error) {
	return []byte(n.Big().String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = Nat{}
		return nil
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
	}
	parsed, err := ParseNat(text)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseNat parses decimal text, ignoring "_" separators.
func ParseNat(text string) (Nat, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	value, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return Nat{}, fmt.Errorf("invalid integer %q", text)
	}
	return Nat{v: value}, nil
}
