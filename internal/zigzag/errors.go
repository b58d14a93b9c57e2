package zigzag

import (
	"errors"
	"fmt"
)

// Decode error kinds. Every error returned by Decode and the UnmarshalJSON
// methods of this package unwraps to exactly one of these.
var (
	ErrUnknownOperationTag = errors.New("unknown operation tag")
	ErrArityMismatch       = errors.New("arity mismatch")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrUnknownCode         = errors.New("unknown code")
)

// DecodeError carries the context of a failed decode
type DecodeError struct {
	Kind   error
	Schema string
	Field  string
	Detail string
}

func (e *DecodeError) Error() string {
	where := e.Schema
	if e.Field != "" {
		if where != "" {
			where += "."
		}
		where += e.Field
	}
	if where == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, where, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func typeMismatch(format string, args ...any) *DecodeError {
	return &DecodeError{Kind: ErrTypeMismatch, Detail: fmt.Sprintf(format, args...)}
}

// withContext attaches schema and field context to err, converting foreign
// errors into a TypeMismatch. Errors from nested records keep their inner
// field path under the outer field.
func withContext(err error, schema, field string) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return &DecodeError{Kind: ErrTypeMismatch, Schema: schema, Field: field, Detail: err.Error()}
	}
	out := *de
	switch {
	case out.Schema == "":
		out.Schema, out.Field = schema, field
	case field != "":
		if out.Field != "" {
			out.Field = field + "." + out.Field
		} else {
			out.Field = field
		}
		out.Schema = schema
	}
	return &out
}
