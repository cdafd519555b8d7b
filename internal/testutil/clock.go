package testutil

import "time"

// TestTime is the instant clock-dependent tests start from.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// FixedTimeFunc returns a clock stuck at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
