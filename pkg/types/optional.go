package types

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent. Absent values marshal as null so
// clients never have to tell a missing key from an empty one.
type Optional[T any] struct {
	value T
	set   bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nil-able pointer into an Optional.
func FromPtr[T any](v *T) Optional[T] {
	if v == nil {
		return None[T]()
	}
	return Some(*v)
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool {
	return o.set
}

// IsNone reports whether the value is absent.
func (o Optional[T]) IsNone() bool {
	return !o.set
}

// Get returns the value and whether it was present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the value or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// Ptr returns a pointer to a copy of the value, or nil.
func (o Optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. null and empty input leave the
// value absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = None[T]()
		return nil
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	*o = Some(parsed)
	return nil
}
