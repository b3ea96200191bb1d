package callable

import (
	"context"
	"fmt"
)

// Func is an inline closure form of a configured value.
type Func func(ctx context.Context, args ...any) (any, error)

// MethodReceiver dispatches named-method references. Domain entities implement
// it to expose a fixed set of callable methods without reflection.
type MethodReceiver interface {
	CallMethod(ctx context.Context, name string, args ...any) (any, error)
}

type valueKind int

const (
	kindUnset valueKind = iota
	kindLiteral
	kindMethodRef
	kindClosure
)

// Value is a configured value that may be a literal, a reference to a named
// method on a receiver, or an inline closure. All three forms are resolved
// through the single Resolve entry point.
type Value struct {
	kind    valueKind
	literal any
	method  string
	fn      Func
}

// Literal wraps a constant value.
func Literal(v any) Value {
	return Value{kind: kindLiteral, literal: v}
}

// MethodRef refers to a named method resolved against the receiver passed to
// Resolve.
func MethodRef(name string) Value {
	return Value{kind: kindMethodRef, method: name}
}

// Closure wraps an inline function.
func Closure(fn Func) Value {
	return Value{kind: kindClosure, fn: fn}
}

// IsZero reports whether the value was never configured.
func (v Value) IsZero() bool {
	return v.kind == kindUnset
}

// Resolve evaluates the value. Literals ignore the receiver and args; method
// references dispatch through the receiver; closures are invoked directly.
func (v Value) Resolve(ctx context.Context, receiver MethodReceiver, args ...any) (any, error) {
	switch v.kind {
	case kindLiteral:
		return v.literal, nil
	case kindMethodRef:
		if receiver == nil {
			return nil, fmt.Errorf("%w: method %q", ErrNoReceiver, v.method)
		}
		return receiver.CallMethod(ctx, v.method, args...)
	case kindClosure:
		return v.fn(ctx, args...)
	default:
		return nil, ErrValueNotSet
	}
}

// ResolveAs resolves the value and asserts the result to T. A nil result
// yields the zero value of T.
func ResolveAs[T any](ctx context.Context, v Value, receiver MethodReceiver, args ...any) (T, error) {
	var zero T

	result, err := v.Resolve(ctx, receiver, args...)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrTypeMismatch, result, zero)
	}
	return typed, nil
}
