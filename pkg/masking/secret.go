// Package masking wraps sensitive values (credentials, card data, tokens)
// so they cannot be printed or logged verbatim by accident.
package masking

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"go.uber.org/zap/zapcore"
)

const mask = "*** masked ***"

// Secret holds a value that must not leak through fmt, zap, slog or JSON
// output. Expose is the only way to read it; wire encoders that need the
// value call Expose explicitly. Decoding from JSON reads the plain value.
type Secret[T any] struct {
	value T
}

// New wraps v.
func New[T any](v T) Secret[T] { return Secret[T]{value: v} }

// Expose returns the wrapped value.
func (s Secret[T]) Expose() T { return s.value }

func (s Secret[T]) String() string   { return mask }
func (s Secret[T]) GoString() string { return mask }

func (s Secret[T]) Format(f fmt.State, _ rune) { _, _ = f.Write([]byte(mask)) }

func (s Secret[T]) LogValue() slog.Value { return slog.StringValue(mask) }

func (s Secret[T]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("value", mask)
	return nil
}

func (s Secret[T]) MarshalJSON() ([]byte, error) { return json.Marshal(mask) }

func (s *Secret[T]) UnmarshalJSON(b []byte) error { return json.Unmarshal(b, &s.value) }

// Ptr wraps v and returns a pointer, handy for optional secret fields.
func Ptr[T any](v T) *Secret[T] {
	s := New(v)
	return &s
}
