// AngelaMos | 2026
// entity.go

package document

import "time"

// Document statuses. Every document starts in PENDING_REVIEW and moves
// exactly once to APPROVED or REJECTED.
const (
	StatusPendingReview = "PENDING_REVIEW"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

type Document struct {
	ID            string     `db:"id"`
	OwnerID       string     `db:"owner_id"`
	Title         string     `db:"title"`
	Description   string     `db:"description"`
	Status        string     `db:"status"`
	ReviewComment *string    `db:"review_comment"`
	ReviewedBy    *string    `db:"reviewed_by"`
	ReviewedAt    *time.Time `db:"reviewed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (d *Document) IsPending() bool {
	return d.Status == StatusPendingReview
}

// ReviewItem is a document joined with its owner for manager listings.
type ReviewItem struct {
	Document
	OwnerFirstName string `db:"owner_first_name"`
	OwnerLastName  string `db:"owner_last_name"`
	OwnerEmail     string `db:"owner_email"`
}
