// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/auth"
	"github.com/carterperez-dev/docvault/internal/core"
)

type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

type Service struct {
	repo    Repository
	auditor Auditor
}

func NewService(repo Repository, auditor Auditor) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
	}
}

// CreateAdmin provisions an admin account. Only reachable through the
// admin-gated route.
func (s *Service) CreateAdmin(
	ctx context.Context,
	actorID string,
	req CreateAdminRequest,
) (*User, error) {
	return s.create(ctx, &actorID, createParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      RoleAdmin,
	})
}

func (s *Service) CreateManager(
	ctx context.Context,
	actorID string,
	req CreateManagerRequest,
) (*User, error) {
	return s.create(ctx, &actorID, createParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      RoleManager,
	})
}

// CreateEmployee is self-registration. The security answer is required
// here and nowhere else: only employees recover access through the
// nickname flow.
func (s *Service) CreateEmployee(
	ctx context.Context,
	req CreateEmployeeRequest,
) (*User, error) {
	answer := core.NormalizeSecurityAnswer(req.SecurityAnswer)
	if answer == "" {
		return nil, fmt.Errorf(
			"security answer is required: %w",
			core.ErrInvalidInput,
		)
	}

	answerHash, err := core.HashPassword(answer)
	if err != nil {
		return nil, fmt.Errorf("hash security answer: %w", err)
	}

	return s.create(ctx, nil, createParams{
		Email:              req.Email,
		Password:           req.Password,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Role:               RoleEmployee,
		SecurityAnswerHash: &answerHash,
	})
}

type createParams struct {
	Email              string
	Password           string
	FirstName          string
	LastName           string
	Role               string
	SecurityAnswerHash *string
}

func (s *Service) create(
	ctx context.Context,
	actorID *string,
	params createParams,
) (*User, error) {
	if err := core.ValidatePasswordPolicy(params.Password); err != nil {
		return nil, err
	}

	passwordHash, err := core.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:                 uuid.New().String(),
		Email:              strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash:       passwordHash,
		FirstName:          strings.TrimSpace(params.FirstName),
		LastName:           strings.TrimSpace(params.LastName),
		Role:               params.Role,
		SecurityAnswerHash: params.SecurityAnswerHash,
		PasswordHistory:    PasswordHistory{},
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if actorID == nil {
		actorID = &u.ID
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      actorID,
		Action:       audit.ActionUserCreate,
		ResourceType: "user",
		ResourceID:   &u.ID,
		Detail:       u.Role,
	}); err != nil {
		return nil, fmt.Errorf("audit user create: %w", err)
	}

	return u, nil
}

// ChangeRole moves a user to a new role. Demoting the last remaining
// admin is refused so the system never loses its admin surface.
func (s *Service) ChangeRole(
	ctx context.Context,
	actorID, targetID, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"change role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role == role {
		return target, nil
	}

	if target.IsAdmin() && role != RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, core.InvalidStateError(
				"Refusing to demote the only active admin",
			)
		}
	}

	if err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	target.Role = role

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &actorID,
		Action:       audit.ActionRoleAssign,
		ResourceType: "user",
		ResourceID:   &targetID,
		Detail:       role,
	}); err != nil {
		return nil, fmt.Errorf("audit role assign: %w", err)
	}

	return target, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
	history []string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash, history)
}

func (s *Service) RecordUse(
	ctx context.Context,
	id string,
	success bool,
	ip string,
) error {
	return s.repo.RecordUse(ctx, id, success, ip)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               u.Role,
		PasswordHash:       u.PasswordHash,
		SecurityAnswerHash: u.SecurityAnswerHash,
		PasswordHistory:    u.PasswordHistory,
		ManagerID:          u.ManagerID,
		LastUseAt:          u.LastUseAt,
		LastUseSuccess:     u.LastUseSuccess,
		LastUseIP:          u.LastUseIP,
	}
}

var _ auth.UserProvider = (*Service)(nil)
