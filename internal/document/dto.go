// AngelaMos | 2026
// dto.go

package document

import "time"

type CreateDocumentRequest struct {
	Title       string `json:"title"       validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=100"`
}

type UpdateDocumentRequest struct {
	Title       string `json:"title"       validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=100"`
}

type ApproveRequest struct {
	Comment string `json:"comment" validate:"max=255"`
}

type RejectRequest struct {
	Comment string `json:"comment" validate:"required,max=255"`
}

type DocumentResponse struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	ReviewComment *string    `json:"review_comment,omitempty"`
	ReviewedBy    *string    `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ReviewItemResponse struct {
	DocumentResponse
	OwnerFirstName string `json:"owner_first_name"`
	OwnerLastName  string `json:"owner_last_name"`
	OwnerEmail     string `json:"owner_email"`
}

func ToDocumentResponse(d *Document) DocumentResponse {
	return DocumentResponse{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		Title:         d.Title,
		Description:   d.Description,
		Status:        d.Status,
		ReviewComment: d.ReviewComment,
		ReviewedBy:    d.ReviewedBy,
		ReviewedAt:    d.ReviewedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func ToDocumentResponseList(docs []Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		responses = append(responses, ToDocumentResponse(&d))
	}
	return responses
}

func ToReviewItemResponseList(items []ReviewItem) []ReviewItemResponse {
	responses := make([]ReviewItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, ReviewItemResponse{
			DocumentResponse: ToDocumentResponse(&item.Document),
			OwnerFirstName:   item.OwnerFirstName,
			OwnerLastName:    item.OwnerLastName,
			OwnerEmail:       item.OwnerEmail,
		})
	}
	return responses
}
