// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateAdminRequest struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,min=7,max=20"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=100"`
}

type CreateManagerRequest struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,min=7,max=20"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=100"`
}

type CreateEmployeeRequest struct {
	Email          string `json:"email"           validate:"required,email,max=255"`
	Password       string `json:"password"        validate:"required,min=7,max=20"`
	FirstName      string `json:"first_name"      validate:"required,min=1,max=100"`
	LastName       string `json:"last_name"       validate:"required,min=1,max=100"`
	SecurityAnswer string `json:"security_answer" validate:"required,min=1,max=255"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MANAGER EMPLOYEE"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	ManagerID *string   `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListUsersParams struct {
	Role   string
	Search string
	Limit  int
}

func (p *ListUsersParams) Normalize() {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		ManagerID: u.ManagerID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
