// AngelaMos | 2026
// service_test.go

package scope

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/user"
)

type fakeMember struct {
	role      string
	managerID *string
}

type fakeRepository struct {
	mu      sync.Mutex
	members map[string]*fakeMember
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{members: make(map[string]*fakeMember)}
}

func (f *fakeRepository) add(id, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = &fakeMember{role: role}
}

func (f *fakeRepository) GetRole(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[id]
	if !ok {
		return "", core.ErrNotFound
	}
	return m.role, nil
}

func (f *fakeRepository) SetManager(
	_ context.Context,
	employeeID string,
	managerID *string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[employeeID]
	if !ok || m.role != user.RoleEmployee {
		return core.ErrNotFound
	}
	m.managerID = managerID
	return nil
}

func (f *fakeRepository) IsInScope(
	_ context.Context,
	managerID, employeeID string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[employeeID]
	if !ok || m.role != user.RoleEmployee || m.managerID == nil {
		return false, nil
	}
	return *m.managerID == managerID, nil
}

func (f *fakeRepository) ListByRole(
	_ context.Context,
	role string,
) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Member
	for id, m := range f.members {
		if m.role == role {
			out = append(out, Member{ID: id, Role: m.role})
		}
	}
	return out, nil
}

func (f *fakeRepository) ListEmployeesFor(
	_ context.Context,
	managerID string,
) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Member
	for id, m := range f.members {
		if m.role == user.RoleEmployee &&
			m.managerID != nil && *m.managerID == managerID {
			out = append(out, Member{ID: id, Role: m.role, ManagerID: m.managerID})
		}
	}
	return out, nil
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

func newTestService() (*Service, *fakeRepository, *fakeAuditor) {
	repo := newFakeRepository()
	auditor := &fakeAuditor{}
	return NewService(repo, auditor), repo, auditor
}

func ptr(s string) *string { return &s }

func TestAssignManager(t *testing.T) {
	svc, repo, auditor := newTestService()
	ctx := context.Background()

	repo.add("emp-1", user.RoleEmployee)
	repo.add("mgr-1", user.RoleManager)

	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", ptr("mgr-1")))

	inScope, err := svc.IsInScope(ctx, "mgr-1", "emp-1")
	require.NoError(t, err)
	require.True(t, inScope)

	require.Len(t, auditor.events, 1)
	require.Equal(t, audit.ActionScopeAssign, auditor.events[0].Action)
	require.Equal(t, "mgr-1", auditor.events[0].Detail)
}

func TestAssignManagerClears(t *testing.T) {
	svc, repo, auditor := newTestService()
	ctx := context.Background()

	repo.add("emp-1", user.RoleEmployee)
	repo.add("mgr-1", user.RoleManager)

	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", ptr("mgr-1")))
	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", nil))

	inScope, err := svc.IsInScope(ctx, "mgr-1", "emp-1")
	require.NoError(t, err)
	require.False(t, inScope)

	require.Equal(t, "unassigned", auditor.events[1].Detail)
}

func TestAssignManagerRejectsWrongRoles(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	repo.add("emp-1", user.RoleEmployee)
	repo.add("mgr-1", user.RoleManager)
	repo.add("adm-1", user.RoleAdmin)

	err := svc.AssignManager(ctx, "admin-1", "mgr-1", ptr("mgr-1"))
	require.ErrorIs(t, err, core.ErrNotFound,
		"the assignee must be an employee")

	err = svc.AssignManager(ctx, "admin-1", "emp-1", ptr("adm-1"))
	require.ErrorIs(t, err, core.ErrNotFound,
		"the target must be a manager")

	err = svc.AssignManager(ctx, "admin-1", "missing", ptr("mgr-1"))
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestReassignManager(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	repo.add("emp-1", user.RoleEmployee)
	repo.add("mgr-1", user.RoleManager)
	repo.add("mgr-2", user.RoleManager)

	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", ptr("mgr-1")))
	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", ptr("mgr-2")))

	was, err := svc.IsInScope(ctx, "mgr-1", "emp-1")
	require.NoError(t, err)
	require.False(t, was, "reassignment removes the previous manager's scope")

	is, err := svc.IsInScope(ctx, "mgr-2", "emp-1")
	require.NoError(t, err)
	require.True(t, is)
}

func TestListMyEmployees(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	repo.add("emp-1", user.RoleEmployee)
	repo.add("emp-2", user.RoleEmployee)
	repo.add("mgr-1", user.RoleManager)

	require.NoError(t, svc.AssignManager(ctx, "admin-1", "emp-1", ptr("mgr-1")))

	members, err := svc.ListMyEmployees(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "emp-1", members[0].ID)
}
