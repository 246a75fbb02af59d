// AngelaMos | 2026
// repository.go

package scope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/docvault/internal/core"
)

// Member is the directory projection of a user: enough to render
// manager and employee listings without dragging credential fields
// around.
type Member struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Role      string    `db:"role" json:"role"`
	ManagerID *string   `db:"manager_id" json:"manager_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	GetRole(ctx context.Context, id string) (string, error)
	SetManager(ctx context.Context, employeeID string, managerID *string) error
	IsInScope(ctx context.Context, managerID, employeeID string) (bool, error)
	ListByRole(ctx context.Context, role string) ([]Member, error)
	ListEmployeesFor(ctx context.Context, managerID string) ([]Member, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const memberColumns = `
	id, email, first_name, last_name, role, manager_id, created_at`

func (r *repository) GetRole(ctx context.Context, id string) (string, error) {
	query := `SELECT role FROM users WHERE id = $1`

	var role string
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}

	return role, nil
}

// SetManager overwrites the employee's assignment in one statement, so
// two concurrent assignments resolve to whichever commits last with no
// intermediate state visible.
func (r *repository) SetManager(
	ctx context.Context,
	employeeID string,
	managerID *string,
) error {
	query := `
		UPDATE users
		SET manager_id = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'EMPLOYEE'`

	result, err := r.db.ExecContext(ctx, query, employeeID, managerID)
	if err != nil {
		return fmt.Errorf("set manager: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set manager: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set manager: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) IsInScope(
	ctx context.Context,
	managerID, employeeID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE id = $1 AND manager_id = $2
		)`

	var inScope bool
	if err := r.db.GetContext(
		ctx, &inScope, query, employeeID, managerID,
	); err != nil {
		return false, fmt.Errorf("check scope: %w", err)
	}

	return inScope, nil
}

func (r *repository) ListByRole(
	ctx context.Context,
	role string,
) ([]Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE role = $1
		ORDER BY created_at ASC`,
		memberColumns)

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, role); err != nil {
		return nil, fmt.Errorf("list by role: %w", err)
	}

	return members, nil
}

func (r *repository) ListEmployeesFor(
	ctx context.Context,
	managerID string,
) ([]Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE manager_id = $1
		ORDER BY created_at ASC`,
		memberColumns)

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, managerID); err != nil {
		return nil, fmt.Errorf("list employees for manager: %w", err)
	}

	return members, nil
}
