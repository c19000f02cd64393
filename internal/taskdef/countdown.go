package taskdef

import (
	"context"
	"fmt"
	"math"
	"time"
)

// CountdownFinishedMessage is the fixed completion message for countdown tasks.
const CountdownFinishedMessage = "Countdown finished"

// maxCountdownSeconds is the largest value representable as a time.Duration.
// Anything above it would overflow the int64 nanosecond conversion into a
// negative duration and fire the timer immediately.
const maxCountdownSeconds = float64(math.MaxInt64 / int64(time.Second))

// validateCountdownInput requires a single non-negative integer field, seconds.
func validateCountdownInput(raw map[string]any) (map[string]any, error) {
	seconds, err := requireNumber(raw, "seconds")
	if err != nil {
		return nil, err
	}

	if seconds != math.Trunc(seconds) {
		return nil, &ValidationError{Field: "seconds", Message: "a valid integer is required"}
	}

	if seconds < 0 {
		return nil, &ValidationError{Field: "seconds", Message: "ensure this value is greater than or equal to 0"}
	}

	if seconds > maxCountdownSeconds {
		return nil, &ValidationError{
			Field:   "seconds",
			Message: fmt.Sprintf("ensure this value is less than or equal to %d", int64(maxCountdownSeconds)),
		}
	}

	return map[string]any{
		"seconds": seconds,
	}, nil
}

// runCountdown sleeps for the requested number of seconds, occupying its
// worker slot for the whole duration. A long countdown ties up one slot
// until it finishes.
func runCountdown(ctx context.Context, input map[string]any) (map[string]any, error) {
	seconds, err := requireNumber(input, "seconds")
	if err != nil {
		return nil, err
	}

	if seconds < 0 || seconds > maxCountdownSeconds {
		return nil, fmt.Errorf("seconds out of range: %v", seconds)
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return map[string]any{
		"message": CountdownFinishedMessage,
	}, nil
}
