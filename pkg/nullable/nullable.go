// Copyright (c) 2026 Aldex. All rights reserved.

/*
Package nullable provides a tri-state JSON field type.

A plain pointer cannot distinguish "field absent" from "field set to null"
after decoding, but PATCH semantics need all three states: absent leaves the
stored value untouched, null clears it, and a value replaces it. The rating
field is the canonical user of this type — a rating can be explicitly
cleared without touching the rest of the record.
*/
package nullable

import (
	"bytes"
	"encoding/json"
)

// Value holds a tri-state JSON field: absent, null, or a concrete value.
//
// The zero Value means "absent". After unmarshalling, Present reports that
// the key appeared in the payload and Valid reports that it was non-null.
type Value[T any] struct {
	Present bool
	Valid   bool
	Data    T
}

// Of returns a present, non-null Value wrapping v.
func Of[T any](v T) Value[T] {
	return Value[T]{Present: true, Valid: true, Data: v}
}

// Null returns a present-but-null Value (an explicit clear).
func Null[T any]() Value[T] {
	return Value[T]{Present: true}
}

// Ptr returns a pointer to the wrapped data, or nil when the value is
// absent or null. Convenient when writing through pointer-based storage.
func (v Value[T]) Ptr() *T {
	if !v.Present || !v.Valid {
		return nil
	}
	data := v.Data
	return &data
}

// UnmarshalJSON implements [json.Unmarshaler].
//
// It is only invoked when the key is present in the payload, which is what
// makes the Present flag trustworthy.
func (v *Value[T]) UnmarshalJSON(raw []byte) error {
	v.Present = true

	if bytes.Equal(raw, []byte("null")) {
		v.Valid = false
		var zero T
		v.Data = zero
		return nil
	}

	if err := json.Unmarshal(raw, &v.Data); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// MarshalJSON implements [json.Marshaler]. Absent and null both encode as
// JSON null; use the Present flag before encoding if the distinction matters.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Data)
}
