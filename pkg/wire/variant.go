// Package wire decodes the Candid-flavoured JSON produced by the canister
// gateway: tagged variants, singleton-array optionals, ok/err results and
// arbitrary-precision naturals.
package wire

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Variant is a tagged union encoded as an object whose keys are the tags,
// for example {"EvidenceSubmission": null}. Well-formed variants carry one key.
type Variant map[string]json.RawMessage

// NewVariant builds a payload-free variant.
func NewVariant(tag string) Variant {
	return Variant{tag: json.RawMessage("null")}
}

// Tags returns the tag names sorted lexically. Callers that need a priority
// must impose their own order.
func (v Variant) Tags() []string {
	tags := make([]string, 0, len(v))
	for tag := range v {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Single returns the only tag when exactly one is present.
func (v Variant) Single() (string, bool) {
	if len(v) != 1 {
		return "", false
	}
	for tag := range v {
		return tag, true
	}
	return "", false
}

// Payload returns the raw payload for tag.
func (v Variant) Payload(tag string) (json.RawMessage, bool) {
	raw, ok := v[tag]
	return raw, ok
}

// ParseVariant decodes data as a variant object. Strings are treated as a
// bare tag so {"Active":null} and "Active" decode alike.
func ParseVariant(data []byte) (Variant, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '{':
		var v Variant
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, false
		}
		return v, true
	case '"':
		var tag string
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return nil, false
		}
		return NewVariant(tag), true
	default:
		return nil, false
	}
}
