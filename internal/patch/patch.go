// Package patch implements merge-patch request fields that distinguish
// "absent from the request body" from "explicitly set to null".
//
// Every flat resource in techo uses merge-patch update semantics: fields
// missing from the body keep their stored value, fields present in the body
// overwrite it, including an explicit null. encoding/json alone cannot make
// that distinction with plain pointers, so update DTOs use Field[T].
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state JSON value: absent, null, or a concrete value.
// The zero Field is absent.
type Field[T any] struct {
	set   bool
	valid bool
	value T
}

// Set returns a present, non-null field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, valid: true, value: v}
}

// Null returns a present field that was explicitly null.
func Null[T any]() Field[T] {
	return Field[T]{set: true}
}

// Present reports whether the field appeared in the request body at all.
func (f Field[T]) Present() bool { return f.set }

// Valid reports whether the field holds a non-null value.
func (f Field[T]) Valid() bool { return f.set && f.valid }

// Value returns the held value. Only meaningful when Valid.
func (f Field[T]) Value() T { return f.value }

// Or returns the held value when present and non-null, otherwise fallback.
// An explicit null also yields fallback; nullable columns that must be
// cleared on null should check Present and Valid directly.
func (f Field[T]) Or(fallback T) T {
	if f.Valid() {
		return f.value
	}
	return fallback
}

// UnmarshalJSON implements json.Unmarshaler. It is only called when the key
// is present in the body, which is what makes the absent state observable.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(data, []byte("null")) {
		f.valid = false
		var zero T
		f.value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.value); err != nil {
		return err
	}
	f.valid = true
	return nil
}

// MarshalJSON implements json.Marshaler. Absent fields marshal as null,
// matching how a merged record would echo an unset nullable column.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
