package budget

import "time"

// Clock provides time information for budget evaluation.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// UTCClock provides actual system time in UTC.
type UTCClock struct{}

// Now returns the current system time in UTC.
func (UTCClock) Now() time.Time {
	return time.Now().UTC()
}

// TestClock provides fixed time for testing.
type TestClock struct {
	CurrentTime time.Time
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	return t.CurrentTime
}
