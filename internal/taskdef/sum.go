package taskdef

import (
	"context"
	"fmt"
	"math"
)

// validateSumInput requires two numeric fields, num1 and num2. Unknown fields
// are dropped from the canonical input.
func validateSumInput(raw map[string]any) (map[string]any, error) {
	num1, err := requireNumber(raw, "num1")
	if err != nil {
		return nil, err
	}

	num2, err := requireNumber(raw, "num2")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"num1": num1,
		"num2": num2,
	}, nil
}

// runSum adds the two validated numbers.
func runSum(_ context.Context, input map[string]any) (map[string]any, error) {
	num1, err := requireNumber(input, "num1")
	if err != nil {
		return nil, err
	}

	num2, err := requireNumber(input, "num2")
	if err != nil {
		return nil, err
	}

	sum := num1 + num2

	// Two huge finite operands can overflow to ±Inf, which has no JSON
	// encoding and would fail the terminal result write.
	if math.IsInf(sum, 0) {
		return nil, fmt.Errorf("sum of %v and %v is not a finite number", num1, num2)
	}

	return map[string]any{
		"sum": sum,
	}, nil
}

// requireNumber extracts a numeric field from a decoded JSON object.
func requireNumber(raw map[string]any, field string) (float64, error) {
	value, ok := raw[field]
	if !ok {
		return 0, &ValidationError{Field: field, Message: "this field is required"}
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, &ValidationError{Field: field, Message: "a valid number is required"}
	}
}
