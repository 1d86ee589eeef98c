package card

import (
	"bytes"
	"encoding/json"
)

// State classifies a cacheable detail field.
type State uint8

const (
	StateNotFetched State = iota
	StateEmpty
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateNotFetched:
		return "not-fetched"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Field holds one detail value together with its fetch state.
// The zero value is not fetched.
type Field[T any] struct {
	state State
	value T
}

// Absent returns a field that has not been fetched yet.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Empty returns a field that was fetched and determined to have no content.
func Empty[T any]() Field[T] {
	return Field[T]{state: StateEmpty}
}

// Of returns a populated field.
func Of[T any](v T) Field[T] {
	return Field[T]{state: StatePopulated, value: v}
}

// List returns Empty for a zero-length slice and a populated field otherwise.
func List[T any](v []T) Field[[]T] {
	if len(v) == 0 {
		return Empty[[]T]()
	}
	return Of(v)
}

// State returns the fetch state.
func (f Field[T]) State() State { return f.state }

// Fetched reports whether the field was fetched, with or without content.
func (f Field[T]) Fetched() bool { return f.state != StateNotFetched }

// IsEmpty reports whether the field was fetched and found to have no content.
func (f Field[T]) IsEmpty() bool { return f.state == StateEmpty }

// Value returns the value and whether the field is populated.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == StatePopulated
}

// OrElse returns the value if populated, def otherwise.
func (f Field[T]) OrElse(def T) T {
	if f.state == StatePopulated {
		return f.value
	}
	return def
}

// IsZero lets encoding/json omit not-fetched fields with the omitzero option.
func (f Field[T]) IsZero() bool { return f.state == StateNotFetched }

// MarshalJSON encodes Empty as null and Populated as the value itself.
// Not-fetched fields are expected to be omitted by the enclosing struct.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != StatePopulated {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as Empty and anything else as Populated.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.state, f.value = StateEmpty, zero
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.state, f.value = StatePopulated, v
	return nil
}
