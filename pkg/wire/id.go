package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier the gateway may send as text or as a nat.
type ID string

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*id = ID(text)
		return nil
	}
	var n Nat
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
