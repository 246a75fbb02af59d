// AngelaMos | 2026
// service.go

package scope

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/user"
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

// AssignManager points an employee at a manager, or clears the
// assignment when managerID is nil. Both sides must hold the expected
// role; anything else reads as not found, the same as a missing id.
func (s *Service) AssignManager(
	ctx context.Context,
	actorID, employeeID string,
	managerID *string,
) error {
	role, err := s.repo.GetRole(ctx, employeeID)
	if err != nil {
		return err
	}
	if role != user.RoleEmployee {
		return fmt.Errorf("assign manager: not an employee: %w", core.ErrNotFound)
	}

	if managerID != nil {
		role, err := s.repo.GetRole(ctx, *managerID)
		if err != nil {
			return err
		}
		if role != user.RoleManager {
			return fmt.Errorf(
				"assign manager: not a manager: %w",
				core.ErrNotFound,
			)
		}
	}

	if err := s.repo.SetManager(ctx, employeeID, managerID); err != nil {
		return err
	}

	detail := "unassigned"
	if managerID != nil {
		detail = *managerID
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &actorID,
		Action:       audit.ActionScopeAssign,
		ResourceType: "user",
		ResourceID:   &employeeID,
		Detail:       detail,
	}); err != nil {
		return fmt.Errorf("audit scope assign: %w", err)
	}

	return nil
}

// IsInScope reports whether the employee is assigned to the manager.
func (s *Service) IsInScope(
	ctx context.Context,
	managerID, employeeID string,
) (bool, error) {
	return s.repo.IsInScope(ctx, managerID, employeeID)
}

func (s *Service) ListManagers(ctx context.Context) ([]Member, error) {
	return s.repo.ListByRole(ctx, user.RoleManager)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Member, error) {
	return s.repo.ListByRole(ctx, user.RoleEmployee)
}

func (s *Service) ListMyEmployees(
	ctx context.Context,
	managerID string,
) ([]Member, error) {
	return s.repo.ListEmployeesFor(ctx, managerID)
}
