// Package types holds small value types shared by request and response models.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type presence uint8

const (
	absent presence = iota
	null
	present
)

// Optional distinguishes an absent field, an explicit JSON null and a value.
// Use it with the omitzero tag option so absent fields are left out:
//
//	Description types.Optional[string] `json:"description,omitzero"`
type Optional[T any] struct {
	value T
	state presence
}

// Some wraps v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, state: present} }

// None is the absent value.
func None[T any]() Optional[T] { return Optional[T]{} }

// Null is an explicit JSON null.
func Null[T any]() Optional[T] { return Optional[T]{state: null} }

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool { return o.state == present }

// IsNull reports whether the field was an explicit null.
func (o Optional[T]) IsNull() bool { return o.state == null }

// IsZero reports whether the field is absent. encoding/json consults it for omitzero.
func (o Optional[T]) IsZero() bool { return o.state == absent }

// Get returns the held value and whether one is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.state == present }

// OrElse returns the held value or def.
func (o Optional[T]) OrElse(def T) T {
	if o.state == present {
		return o.value
	}
	return def
}

// MarshalJSON encodes absent and null as JSON null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.state != present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON is only called for fields that appear in the document,
// so a missing field stays absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.value, o.state = zero, null
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value, o.state = v, present
	return nil
}

func (o Optional[T]) String() string {
	switch o.state {
	case present:
		return fmt.Sprintf("Some(%v)", o.value)
	case null:
		return "Null"
	default:
		return "None"
	}
}
