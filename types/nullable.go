package types

import (
	"bytes"
	"encoding/json"
)

// Nullable is a JSON field that distinguishes "absent" from "null".
//
//	{}              -> Set=false
//	{"x": null}     -> Set=true, Valid=false
//	{"x": "value"}  -> Set=true, Valid=true, Value="value"
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null returns a Nullable explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON is only called when the key is present.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON writes null unless a value is present.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns a pointer to the value, or nil when null or absent.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// ValidationValue exposes the wrapped value to the validator. A nil result
// makes omitempty/omitnil rules skip the field.
func (n Nullable[T]) ValidationValue() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}
