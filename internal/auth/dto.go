// AngelaMos | 2026
// dto.go

package auth

import "time"

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      ProfileInfo  `json:"user"`
	LastUse   *LastUseInfo `json:"last_use,omitempty"`
}

// LastUseInfo is the previous use of the account, surfaced at login so
// the owner can spot activity that was not theirs.
type LastUseInfo struct {
	At      time.Time `json:"at"`
	Success bool      `json:"success"`
	IP      string    `json:"ip,omitempty"`
}

type ProfileInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type FindAccountRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type FindAccountResponse struct {
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	SecurityQuestion bool   `json:"security_question"`
}

type VerifyAnswerRequest struct {
	Email  string `json:"email"  validate:"required,email"`
	Answer string `json:"answer" validate:"required,max=255"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Answer      string `json:"answer"       validate:"required,max=255"`
	NewPassword string `json:"new_password" validate:"required,max=128"`
}

func toProfileInfo(u *UserInfo) ProfileInfo {
	return ProfileInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
