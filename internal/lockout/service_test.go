// AngelaMos | 2026
// service_test.go

package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/docvault/internal/config"
	"github.com/carterperez-dev/docvault/internal/core"
)

// fakeRepository keeps records in memory under a mutex, mirroring the
// commit-even-on-domain-error contract of the real implementation.
type fakeRepository struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]*Record)}
}

func (f *fakeRepository) Mutate(
	_ context.Context,
	flow, identity string,
	fn func(rec *Record) error,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := flow + "|" + identity
	rec, ok := f.records[key]
	if !ok {
		rec = &Record{Flow: flow, Identity: identity}
		f.records[key] = rec
	}

	err := fn(rec)
	rec.UpdatedAt = time.Now()
	return err
}

func (f *fakeRepository) Get(
	_ context.Context,
	flow, identity string,
) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[flow+"|"+identity]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func testConfig() config.LockoutConfig {
	return config.LockoutConfig{
		NicknameMaxAttempts:    5,
		NicknameCooldown:       30 * time.Second,
		PasswordChangeCooldown: 24 * time.Hour,
		PasswordHistoryLimit:   3,
	}
}

func newTestService(repo Repository) *Service {
	return NewService(repo, testConfig())
}

func TestAttemptLocksAtThreshold(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	fail := func() bool { return false }

	for i := 0; i < 4; i++ {
		err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", fail)
		require.ErrorIs(t, err, ErrAttemptFailed, "attempt %d", i+1)
	}

	err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", fail)
	var tma *TooManyAttemptsError
	require.ErrorAs(t, err, &tma)
	require.InDelta(t, 30, tma.RemainingSeconds, 1)

	rec, err := repo.Get(ctx, FlowNicknameVerify, "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, rec.AttemptCount, "counter resets when the lock is set")
	require.NotNil(t, rec.LockedUntil)
}

func TestAttemptFailsFastWhileLocked(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
			return false
		})
	}

	called := false
	err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
		called = true
		return true
	})

	var tma *TooManyAttemptsError
	require.ErrorAs(t, err, &tma)
	require.False(t, called, "verify must not run while locked")
}

func TestAttemptSuccessClearsCounter(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
			return false
		})
	}

	err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
		return true
	})
	require.NoError(t, err)

	rec, err := repo.Get(ctx, FlowNicknameVerify, "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, rec.AttemptCount)
	require.Nil(t, rec.LockedUntil)
}

func TestAttemptExpiredLockAllowsRetry(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Mutate(
		ctx, FlowNicknameVerify, "user-1",
		func(rec *Record) error {
			rec.LockedUntil = &past
			return nil
		},
	))

	err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
		return true
	})
	require.NoError(t, err)

	rec, err := repo.Get(ctx, FlowNicknameVerify, "user-1")
	require.NoError(t, err)
	require.Nil(t, rec.LockedUntil, "expired lock is cleared")
}

func TestIdentitiesAreIndependent(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
			return false
		})
	}

	err := svc.Attempt(ctx, FlowNicknameVerify, "user-2", func() bool {
		return true
	})
	require.NoError(t, err, "locking user-1 must not affect user-2")
}

func TestCheckPasswordChangeCooldown(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.CheckPasswordChange(ctx, "user-1"))

	require.NoError(t, svc.RecordPasswordChange(ctx, "user-1"))

	err := svc.CheckPasswordChange(ctx, "user-1")
	var tma *TooManyAttemptsError
	require.ErrorAs(t, err, &tma)
	require.Greater(t, tma.RemainingSeconds, int64(0))
}

func TestResetClearsLock(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
			return false
		})
	}

	require.NoError(t, svc.Reset(ctx, FlowNicknameVerify, "user-1"))

	err := svc.Attempt(ctx, FlowNicknameVerify, "user-1", func() bool {
		return true
	})
	require.NoError(t, err)
}

func TestCheckPasswordReuse(t *testing.T) {
	svc := newTestService(newFakeRepository())

	current, err := core.HashPassword("Curr3nt!pw")
	require.NoError(t, err)
	old, err := core.HashPassword("0ldone!pw")
	require.NoError(t, err)

	require.ErrorIs(t,
		svc.CheckPasswordReuse("Curr3nt!pw", current, nil),
		ErrPasswordReused)

	require.ErrorIs(t,
		svc.CheckPasswordReuse("0ldone!pw", current, []string{old}),
		ErrPasswordReused)

	require.NoError(t,
		svc.CheckPasswordReuse("fresh1!pw", current, []string{old}))
}

func TestTooManyAttemptsMessage(t *testing.T) {
	err := &TooManyAttemptsError{RemainingSeconds: 30}
	require.Equal(t, "Too many attempts. Try again in 30 seconds.", err.Error())
}
