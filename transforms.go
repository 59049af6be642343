package sluice

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// structValidator is the shared validator instance used by Decode.
var structValidator = validator.New()

// ErrNoRows is returned by First and Column when the loaded RowSet is empty.
var ErrNoRows = errors.New("no rows")

// Map adapts a typed function into a Transform. The input must be of type In;
// any other type fails the chain.
func Map[In, Out any](fn func(ctx context.Context, in In) (Out, error)) Transform {
	return func(ctx context.Context, v any) (any, error) {
		in, ok := v.(In)
		if !ok {
			var zero In
			return nil, fmt.Errorf("expected %T, got %T", zero, v)
		}
		return fn(ctx, in)
	}
}

// First returns a Transform that reduces a RowSet to its first Row.
func First() Transform {
	return Map(func(_ context.Context, rows RowSet) (Row, error) {
		if len(rows) == 0 {
			return nil, ErrNoRows
		}
		return rows[0], nil
	})
}

// Column returns a Transform that reduces a RowSet to one column of its
// first row.
func Column(name string) Transform {
	return Map(func(_ context.Context, rows RowSet) (any, error) {
		if len(rows) == 0 {
			return nil, ErrNoRows
		}
		v, ok := rows[0][name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		return v, nil
	})
}

// Decode returns a Transform that unmarshals column of the first row into T
// using codec and validates the result with go-playground/validator struct
// tags. The column may hold text, bytes or an already-decoded structure
// such as a JSONB map.
//
// Example:
//
//	type Flags struct {
//	    MaxItems int `json:"max_items" validate:"min=1"`
//	}
//
//	adapter := sluice.New(dialer, cfg, sluice.Decode[Flags]("data", sluice.JSONCodec{}))
func Decode[T any](column string, codec Codec) Transform {
	extract := Column(column)
	return func(ctx context.Context, v any) (any, error) {
		raw, err := extract(ctx, v)
		if err != nil {
			return nil, err
		}

		data, err := columnBytes(codec, raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}

		var out T
		if err := codec.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode column %q as %s: %w", column, codec.ContentType(), err)
		}
		if err := validateValue(out); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		return out, nil
	}
}

// validateValue runs struct validation on structs and pointers to structs.
// Other types have no tags to check.
func validateValue(v any) error {
	err := structValidator.Struct(v)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil
	}
	return err
}
