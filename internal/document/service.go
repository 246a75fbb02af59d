// AngelaMos | 2026
// service.go

package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/metrics"
)

const (
	maxTitleLen       = 50
	maxDescriptionLen = 100
)

// ScopeChecker answers whether an employee reports to a manager. The
// scope package implements it.
type ScopeChecker interface {
	IsInScope(ctx context.Context, managerID, employeeID string) (bool, error)
}

type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

type Service struct {
	repo    Repository
	scopes  ScopeChecker
	auditor Auditor
}

func NewService(repo Repository, scopes ScopeChecker, auditor Auditor) *Service {
	return &Service{
		repo:    repo,
		scopes:  scopes,
		auditor: auditor,
	}
}

func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateDocumentRequest,
) (*Document, error) {
	title, description, err := normalizeContent(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      StatusPendingReview,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &ownerID,
		Action:       audit.ActionDocCreate,
		ResourceType: "document",
		ResourceID:   &doc.ID,
	}); err != nil {
		return nil, fmt.Errorf("audit document create: %w", err)
	}

	return doc, nil
}

// Update edits a document while it is still pending. Reviewed documents
// are immutable; a document owned by someone else reads as not found.
func (s *Service) Update(
	ctx context.Context,
	callerID, docID string,
	req UpdateDocumentRequest,
) (*Document, error) {
	title, description, err := normalizeContent(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.UpdateContent(ctx, docID, callerID, title, description)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, s.explainMiss(ctx, docID, callerID)
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &callerID,
		Action:       audit.ActionDocUpdate,
		ResourceType: "document",
		ResourceID:   &doc.ID,
	}); err != nil {
		return nil, fmt.Errorf("audit document update: %w", err)
	}

	return doc, nil
}

func (s *Service) Delete(ctx context.Context, callerID, docID string) error {
	deleted, err := s.repo.Delete(ctx, docID, callerID)
	if err != nil {
		return err
	}

	if !deleted {
		return fmt.Errorf("delete document: %w", core.ErrNotFound)
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &callerID,
		Action:       audit.ActionDocDelete,
		ResourceType: "document",
		ResourceID:   &docID,
	}); err != nil {
		return fmt.Errorf("audit document delete: %w", err)
	}

	return nil
}

func (s *Service) ListMine(
	ctx context.Context,
	ownerID string,
) ([]Document, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListReview(
	ctx context.Context,
	managerID string,
	pendingOnly bool,
) ([]ReviewItem, error) {
	return s.repo.ListForManager(ctx, managerID, pendingOnly)
}

// Approve takes an optional reviewer comment; a blank one is dropped.
func (s *Service) Approve(
	ctx context.Context,
	managerID, docID, comment string,
) (*Document, error) {
	var trimmed *string
	if c := strings.TrimSpace(comment); c != "" {
		trimmed = &c
	}

	return s.decide(ctx, managerID, docID, StatusApproved, trimmed)
}

// Reject requires a non-empty comment so the owner always learns why.
func (s *Service) Reject(
	ctx context.Context,
	managerID, docID, comment string,
) (*Document, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf(
			"rejection requires a comment: %w",
			core.ErrInvalidInput,
		)
	}

	return s.decide(ctx, managerID, docID, StatusRejected, &comment)
}

// decide enforces scope before touching the document. A scope miss is
// deliberately reported as not-found instead of forbidden: a manager
// cannot act on, or even confirm the existence of, a document outside
// their scope.
func (s *Service) decide(
	ctx context.Context,
	managerID, docID, status string,
	comment *string,
) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	inScope, err := s.scopes.IsInScope(ctx, managerID, doc.OwnerID)
	if err != nil {
		return nil, err
	}
	if !inScope {
		return nil, fmt.Errorf("decide document: %w", core.ErrNotFound)
	}

	decided, err := s.repo.Decide(ctx, docID, managerID, status, comment)
	if err != nil {
		return nil, err
	}

	if decided == nil {
		return nil, core.InvalidStateError("Document already reviewed")
	}

	action := audit.ActionDocApprove
	if status == StatusRejected {
		action = audit.ActionDocReject
	}

	var detail string
	if comment != nil {
		detail = *comment
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &managerID,
		Action:       action,
		ResourceType: "document",
		ResourceID:   &decided.ID,
		Detail:       detail,
	}); err != nil {
		return nil, fmt.Errorf("audit document decision: %w", err)
	}

	metrics.ObserveDocumentTransition(status)

	return decided, nil
}

// explainMiss distinguishes the reasons a conditional update matched
// nothing. Ownership misses surface as not-found rather than forbidden
// so callers cannot probe for other users' document ids.
func (s *Service) explainMiss(
	ctx context.Context,
	docID, callerID string,
) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.OwnerID != callerID {
		return fmt.Errorf("update document: %w", core.ErrNotFound)
	}

	if !doc.IsPending() {
		return core.InvalidStateError("Document already reviewed")
	}

	// Row changed between the update and the read; treat as a conflict.
	return core.InvalidStateError("Document state changed, retry")
}

func normalizeContent(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" || len(title) > maxTitleLen {
		return "", "", fmt.Errorf(
			"title must be 1-%d characters: %w",
			maxTitleLen,
			core.ErrInvalidInput,
		)
	}

	if description == "" || len(description) > maxDescriptionLen {
		return "", "", fmt.Errorf(
			"description must be 1-%d characters: %w",
			maxDescriptionLen,
			core.ErrInvalidInput,
		)
	}

	return title, description, nil
}
