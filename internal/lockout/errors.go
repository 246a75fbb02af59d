// AngelaMos | 2026
// errors.go

package lockout

import (
	"errors"
	"fmt"
)

// ErrAttemptFailed marks a counted verification failure. The caller
// decides the user-facing message for its flow.
var ErrAttemptFailed = errors.New("attempt failed")

// ErrPasswordReused marks a rejected password that matches the current
// one or an entry in the history. It is never a counted attempt.
var ErrPasswordReused = errors.New("password reused")

// TooManyAttemptsError reports an active lock with the seconds left
// until the flow opens again.
type TooManyAttemptsError struct {
	RemainingSeconds int64
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf(
		"Too many attempts. Try again in %d seconds.",
		e.RemainingSeconds,
	)
}
