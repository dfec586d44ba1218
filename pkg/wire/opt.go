package wire

import (
	"bytes"
	"encoding/json"

	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

// Opt decodes a Candid optional. The gateway emits [] or [x]; some callers
// send null or the bare value instead, and all four forms are accepted.
type Opt[T any] struct {
	Value T
	Valid bool
}

// SomeOpt wraps a present value.
func SomeOpt[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Valid: true}
}

// Optional converts to the presentation optional.
func (o Opt[T]) Optional() types.Optional[T] {
	if !o.Valid {
		return types.None[T]()
	}
	return types.Some(o.Value)
}

// MarshalJSON emits the singleton-array form.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("[]"), nil
	}
	return json.Marshal([]T{o.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	*o = Opt[T]{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		switch len(items) {
		case 0:
			return nil
		case 1:
			var inner T
			if err := json.Unmarshal(items[0], &inner); err == nil {
				*o = SomeOpt(inner)
				return nil
			}
		}
		// T may itself be a list type.
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	*o = SomeOpt(parsed)
	return nil
}
