// AngelaMos | 2026
// entity.go

package lockout

import "time"

// Flows that carry independent lockout state. The same identity can be
// locked in one flow and clear in another.
const (
	FlowNicknameVerify = "NICKNAME_VERIFY"
	FlowPasswordChange = "PASSWORD_CHANGE"
)

type Record struct {
	Flow         string     `db:"flow"`
	Identity     string     `db:"identity"`
	AttemptCount int        `db:"attempt_count"`
	LockedUntil  *time.Time `db:"locked_until"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
