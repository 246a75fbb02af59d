// AngelaMos | 2026
// service_test.go

package document

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/core"
)

type fakeRepository struct {
	mu   sync.Mutex
	docs map[string]*Document
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{docs: make(map[string]*Document)}
}

func (f *fakeRepository) Create(_ context.Context, doc *Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeRepository) UpdateContent(
	_ context.Context,
	id, ownerID, title, description string,
) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if doc.OwnerID != ownerID || doc.Status != StatusPendingReview {
		return nil, nil
	}

	doc.Title = title
	doc.Description = description
	doc.UpdatedAt = time.Now()
	copied := *doc
	return &copied, nil
}

func (f *fakeRepository) Delete(_ context.Context, id, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return false, nil
	}
	delete(f.docs, id)
	return true, nil
}

func (f *fakeRepository) ListByOwner(_ context.Context, ownerID string) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Document
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListForManager(
	_ context.Context,
	_ string,
	_ bool,
) ([]ReviewItem, error) {
	return nil, nil
}

func (f *fakeRepository) Decide(
	_ context.Context,
	id, reviewerID, status string,
	comment *string,
) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok || doc.Status != StatusPendingReview {
		return nil, nil
	}

	now := time.Now()
	doc.Status = status
	doc.ReviewComment = comment
	doc.ReviewedBy = &reviewerID
	doc.ReviewedAt = &now
	copied := *doc
	return &copied, nil
}

type fakeScopes struct {
	inScope map[string]bool
}

func (f *fakeScopes) IsInScope(
	_ context.Context,
	managerID, employeeID string,
) (bool, error) {
	return f.inScope[managerID+"|"+employeeID], nil
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditor) Record(_ context.Context, event audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditor) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Action
	}
	return out
}

func newTestService() (*Service, *fakeRepository, *fakeScopes, *fakeAuditor) {
	repo := newFakeRepository()
	scopes := &fakeScopes{inScope: make(map[string]bool)}
	auditor := &fakeAuditor{}
	return NewService(repo, scopes, auditor), repo, scopes, auditor
}

func TestCreateDocument(t *testing.T) {
	svc, _, _, auditor := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "  Expense report  ",
		Description: "Q3 receipts",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPendingReview, doc.Status)
	require.Equal(t, "Expense report", doc.Title, "title is trimmed")
	require.Equal(t, []string{audit.ActionDocCreate}, auditor.actions())
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "   ",
		Description: "something",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       strings.Repeat("x", 51),
		Description: "something",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "fine",
		Description: strings.Repeat("x", 101),
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdatePendingDocument(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "owner-1", doc.ID, UpdateDocumentRequest{
		Title:       "Draft",
		Description: "v2",
	})
	require.NoError(t, err)
	require.Equal(t, "v2", updated.Description)
}

func TestUpdateByNonOwnerReadsAsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "someone-else", doc.ID, UpdateDocumentRequest{
		Title:       "Hijack",
		Description: "nope",
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateReviewedDocumentRejected(t *testing.T) {
	svc, _, scopes, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	scopes.inScope["mgr-1|owner-1"] = true
	_, err = svc.Approve(ctx, "mgr-1", doc.ID, "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, "owner-1", doc.ID, UpdateDocumentRequest{
		Title:       "Draft",
		Description: "v2",
	})

	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "Document already reviewed", appErr.Message)
}

func TestDeleteOwnDocument(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "owner-1", doc.ID))
	require.ErrorIs(t, svc.Delete(ctx, "owner-1", doc.ID), core.ErrNotFound)
}

func TestApproveOutOfScopeReadsAsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, "mgr-1", doc.ID, "")
	require.ErrorIs(t, err, core.ErrNotFound,
		"out-of-scope document must not reveal its existence")
}

func TestApproveThenApproveAgain(t *testing.T) {
	svc, _, scopes, auditor := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	scopes.inScope["mgr-1|owner-1"] = true
	scopes.inScope["mgr-2|owner-1"] = true

	decided, err := svc.Approve(ctx, "mgr-1", doc.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Equal(t, "mgr-1", *decided.ReviewedBy)

	_, err = svc.Approve(ctx, "mgr-2", doc.ID, "")
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "Document already reviewed", appErr.Message)

	require.Equal(t,
		[]string{audit.ActionDocCreate, audit.ActionDocApprove},
		auditor.actions(),
		"the losing decision must not be audited")
}

func TestApproveCarriesOptionalComment(t *testing.T) {
	svc, _, scopes, auditor := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)
	scopes.inScope["mgr-1|owner-1"] = true

	decided, err := svc.Approve(ctx, "mgr-1", doc.ID, " looks good ")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.NotNil(t, decided.ReviewComment)
	require.Equal(t, "looks good", *decided.ReviewComment)

	events := auditor.events
	require.Equal(t, audit.ActionDocApprove, events[len(events)-1].Action)
	require.Equal(t, "looks good", events[len(events)-1].Detail)
}

func TestApproveWithoutCommentLeavesItEmpty(t *testing.T) {
	svc, _, scopes, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)
	scopes.inScope["mgr-1|owner-1"] = true

	decided, err := svc.Approve(ctx, "mgr-1", doc.ID, "   ")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Nil(t, decided.ReviewComment)
}

func TestRejectRequiresComment(t *testing.T) {
	svc, _, scopes, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)
	scopes.inScope["mgr-1|owner-1"] = true

	_, err = svc.Reject(ctx, "mgr-1", doc.ID, "   ")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	decided, err := svc.Reject(ctx, "mgr-1", doc.ID, " missing receipts ")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, decided.Status)
	require.Equal(t, "missing receipts", *decided.ReviewComment)
}

func TestScopeErrorPropagates(t *testing.T) {
	repo := newFakeRepository()
	auditor := &fakeAuditor{}
	scopeErr := errors.New("scope lookup failed")
	svc := NewService(repo, failingScopes{err: scopeErr}, auditor)
	ctx := context.Background()

	doc, err := svc.Create(ctx, "owner-1", CreateDocumentRequest{
		Title:       "Draft",
		Description: "v1",
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, "mgr-1", doc.ID, "")
	require.ErrorIs(t, err, scopeErr)
}

type failingScopes struct {
	err error
}

func (f failingScopes) IsInScope(
	_ context.Context,
	_, _ string,
) (bool, error) {
	return false, f.err
}
