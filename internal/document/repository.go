// AngelaMos | 2026
// repository.go

package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/docvault/internal/core"
)

type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	UpdateContent(
		ctx context.Context,
		id, ownerID, title, description string,
	) (*Document, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	ListForManager(
		ctx context.Context,
		managerID string,
		pendingOnly bool,
	) ([]ReviewItem, error)
	Decide(
		ctx context.Context,
		id, reviewerID, status string,
		comment *string,
	) (*Document, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const documentColumns = `
	id, owner_id, title, description, status,
	review_comment, reviewed_by, reviewed_at,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (id, owner_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, doc, query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.Description,
		doc.Status,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Document, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM documents WHERE id = $1`,
		documentColumns,
	)

	var doc Document
	err := r.db.GetContext(ctx, &doc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// UpdateContent edits a pending document owned by ownerID. The status
// condition lives in the statement, so an edit racing a decision can
// never touch a reviewed document.
func (r *repository) UpdateContent(
	ctx context.Context,
	id, ownerID, title, description string,
) (*Document, error) {
	query := fmt.Sprintf(`
		UPDATE documents
		SET title = $3, description = $4, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND status = '%s'
		RETURNING %s`,
		StatusPendingReview, documentColumns)

	var doc Document
	err := r.db.GetContext(ctx, &doc, query, id, ownerID, title, description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return &doc, nil
}

func (r *repository) Delete(
	ctx context.Context,
	id, ownerID string,
) (bool, error) {
	query := `DELETE FROM documents WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID string,
) ([]Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at ASC`,
		documentColumns)

	var docs []Document
	if err := r.db.SelectContext(ctx, &docs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list documents by owner: %w", err)
	}

	return docs, nil
}

func (r *repository) ListForManager(
	ctx context.Context,
	managerID string,
	pendingOnly bool,
) ([]ReviewItem, error) {
	statusFilter := ""
	if pendingOnly {
		statusFilter = fmt.Sprintf(
			"AND d.status = '%s'",
			StatusPendingReview,
		)
	}

	query := fmt.Sprintf(`
		SELECT d.id, d.owner_id, d.title, d.description, d.status,
		       d.review_comment, d.reviewed_by, d.reviewed_at,
		       d.created_at, d.updated_at,
		       u.first_name AS owner_first_name,
		       u.last_name AS owner_last_name,
		       u.email AS owner_email
		FROM documents d
		JOIN users u ON u.id = d.owner_id
		WHERE u.manager_id = $1 %s
		ORDER BY d.created_at ASC`,
		statusFilter)

	var items []ReviewItem
	if err := r.db.SelectContext(ctx, &items, query, managerID); err != nil {
		return nil, fmt.Errorf("list documents for manager: %w", err)
	}

	return items, nil
}

// Decide flips a pending document to its final status. Two concurrent
// decisions race on the status condition: one updates a row, the other
// matches nothing and returns nil.
func (r *repository) Decide(
	ctx context.Context,
	id, reviewerID, status string,
	comment *string,
) (*Document, error) {
	query := fmt.Sprintf(`
		UPDATE documents
		SET status = $3, review_comment = $4, reviewed_by = $2,
		    reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = '%s'
		RETURNING %s`,
		StatusPendingReview, documentColumns)

	var doc Document
	err := r.db.GetContext(ctx, &doc, query, id, reviewerID, status, comment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decide document: %w", err)
	}

	return &doc, nil
}
