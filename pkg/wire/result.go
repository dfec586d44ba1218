package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the two-case reply of a mutating canister method.
type Result[T any] struct {
	Ok    T
	Err   string
	IsErr bool
}

// UnmarshalJSON accepts {"ok": v} and {"err": e}. Tag case is ignored. A
// non-string err payload is kept as its variant tag or raw JSON text. A reply
// carrying both tags is treated as an error.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	*r = Result[T]{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	var okRaw, errRaw json.RawMessage
	var hasOk, hasErr bool
	for key, raw := range fields {
		switch strings.ToLower(key) {
		case "ok":
			okRaw, hasOk = raw, true
		case "err":
			errRaw, hasErr = raw, true
		}
	}

	switch {
	case hasErr:
		r.IsErr = true
		r.Err = errorText(errRaw)
		return nil
	case hasOk:
		trimmed := bytes.TrimSpace(okRaw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil
		}
		if err := json.Unmarshal(trimmed, &r.Ok); err != nil {
			return fmt.Errorf("decode ok payload: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("result has neither ok nor err tag")
	}
}

func errorText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	if v, ok := ParseVariant(raw); ok {
		if tag, single := v.Single(); single {
			if payload, _ := v.Payload(tag); len(payload) > 0 {
				var detail string
				if err := json.Unmarshal(payload, &detail); err == nil && detail != "" {
					return tag + ": " + detail
				}
			}
			return tag
		}
	}
	return string(bytes.TrimSpace(raw))
}
