// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is the server-side record behind every issued token. A token
// whose session row is revoked or expired resolves to nothing.
type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	UserAgent string     `db:"user_agent"`
	IPAddress string     `db:"ip_address"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// UserInfo is the user projection the auth flows need. The user package
// implements UserProvider over its repository.
type UserInfo struct {
	ID                 string
	Email              string
	FirstName          string
	LastName           string
	Role               string
	PasswordHash       string
	SecurityAnswerHash *string
	PasswordHistory    []string
	ManagerID          *string
	LastUseAt          *time.Time
	LastUseSuccess     *bool
	LastUseIP          *string
}
