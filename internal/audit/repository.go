// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/docvault/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, event *Event) error
	List(ctx context.Context, params ListParams) ([]Event, error)
}

type ListParams struct {
	Action string
	Limit  int
}

func (p *ListParams) Normalize() {
	if p.Limit <= 0 || p.Limit > 500 {
		p.Limit = 100
	}
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO audit_events
			(id, actor_id, action, resource_type, resource_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &event.CreatedAt, query,
		event.ID,
		event.ActorID,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Event, error) {
	params.Normalize()

	var events []Event
	var err error

	if params.Action != "" {
		query := `
			SELECT id, actor_id, action, resource_type, resource_id,
			       detail, created_at
			FROM audit_events
			WHERE action = $1
			ORDER BY created_at DESC
			LIMIT $2`
		err = r.db.SelectContext(ctx, &events, query, params.Action, params.Limit)
	} else {
		query := `
			SELECT id, actor_id, action, resource_type, resource_id,
			       detail, created_at
			FROM audit_events
			ORDER BY created_at DESC
			LIMIT $1`
		err = r.db.SelectContext(ctx, &events, query, params.Limit)
	}

	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	return events, nil
}
