// AngelaMos | 2026
// entity.go

package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID                 string          `db:"id"`
	Email              string          `db:"email"`
	PasswordHash       string          `db:"password_hash"`
	FirstName          string          `db:"first_name"`
	LastName           string          `db:"last_name"`
	Role               string          `db:"role"`
	SecurityAnswerHash *string         `db:"security_answer_hash"`
	ManagerID          *string         `db:"manager_id"`
	PasswordHistory    PasswordHistory `db:"password_history"`
	LastUseAt          *time.Time      `db:"last_use_at"`
	LastUseSuccess     *bool           `db:"last_use_success"`
	LastUseIP          *string         `db:"last_use_ip"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// PasswordHistory holds prior password hashes, newest last, stored as a
// jsonb column.
type PasswordHistory []string

func (h PasswordHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(h))
	if err != nil {
		return nil, fmt.Errorf("marshal password history: %w", err)
	}
	return string(b), nil
}

func (h *PasswordHistory) Scan(src any) error {
	if src == nil {
		*h = nil
		return nil
	}

	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan password history: unsupported type %T", src)
	}

	var entries []string
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("scan password history: %w", err)
	}

	*h = entries
	return nil
}

// Append adds a hash and trims the oldest entries past limit.
func (h PasswordHistory) Append(hash string, limit int) PasswordHistory {
	out := append(h, hash)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
