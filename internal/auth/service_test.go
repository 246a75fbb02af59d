// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/config"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/lockout"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, session *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) RevokeSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.sessions[id]; ok && session.RevokedAt == nil {
		now := time.Now()
		session.RevokedAt = &now
	}
	return nil
}

func (f *fakeSessionRepo) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, session := range f.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for id, session := range f.sessions {
		if session.IsExpired() {
			delete(f.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*UserInfo)}
}

func (f *fakeUsers) add(info UserInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[info.ID] = &info
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, info := range f.users {
		if info.Email == email {
			copied := *info
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *info
	return &copied, nil
}

func (f *fakeUsers) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
	history []string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	info.PasswordHash = passwordHash
	info.PasswordHistory = history
	return nil
}

func (f *fakeUsers) RecordUse(
	_ context.Context,
	id string,
	success bool,
	ip string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.users[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	info.LastUseAt = &now
	info.LastUseSuccess = &success
	info.LastUseIP = &ip
	return nil
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

type fakeLockoutRepo struct {
	mu      sync.Mutex
	records map[string]*lockout.Record
}

func newFakeLockoutRepo() *fakeLockoutRepo {
	return &fakeLockoutRepo{records: make(map[string]*lockout.Record)}
}

func (f *fakeLockoutRepo) Mutate(
	_ context.Context,
	flow, identity string,
	fn func(rec *lockout.Record) error,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := flow + "|" + identity
	rec, ok := f.records[key]
	if !ok {
		rec = &lockout.Record{Flow: flow, Identity: identity}
		f.records[key] = rec
	}
	return fn(rec)
}

func (f *fakeLockoutRepo) Get(
	_ context.Context,
	flow, identity string,
) (*lockout.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[flow+"|"+identity]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func newTestTokens(t *testing.T) *SessionTokenManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "session.key")
	publicPath := filepath.Join(dir, "session.pub")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	tokens, err := NewSessionTokenManager(config.SessionConfig{
		PrivateKeyPath: privatePath,
		PublicKeyPath:  publicPath,
		TokenExpire:    time.Hour,
		Issuer:         "docvault-test",
		Audience:       "docvault",
	})
	require.NoError(t, err)
	return tokens
}

type testEnv struct {
	svc   *Service
	repo  *fakeSessionRepo
	users *fakeUsers
	audit *fakeAuditor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeSessionRepo()
	users := newFakeUsers()
	auditor := &fakeAuditor{}
	lockouts := lockout.NewService(newFakeLockoutRepo(), config.LockoutConfig{
		NicknameMaxAttempts:    5,
		NicknameCooldown:       30 * time.Second,
		PasswordChangeCooldown: 24 * time.Hour,
		PasswordHistoryLimit:   3,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(
		repo,
		newTestTokens(t),
		users,
		lockouts,
		auditor,
		nil,
		logger,
	)

	return &testEnv{svc: svc, repo: repo, users: users, audit: auditor}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := core.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func seedEmployee(t *testing.T, env *testEnv) UserInfo {
	t.Helper()

	answerHash := mustHash(t, core.NormalizeSecurityAnswer("Fluffy"))
	info := UserInfo{
		ID:                 "emp-1",
		Email:              "emp@example.com",
		FirstName:          "Dana",
		LastName:           "Reed",
		Role:               "EMPLOYEE",
		PasswordHash:       mustHash(t, "old1pass!"),
		SecurityAnswerHash: &answerHash,
	}
	env.users.add(info)
	return info
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	resp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "s3cret!pw",
	}, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Nil(t, resp.LastUse, "first login has no previous use")

	require.Len(t, env.audit.events, 1)
	require.Equal(t, audit.ActionLogin, env.audit.events[0].Action)
	require.Equal(t, "success", env.audit.events[0].Detail)
}

func TestLoginFailureIsAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	_, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "wrong1!pw",
	}, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, env.audit.events, 1)
	failed := env.audit.events[0]
	require.Equal(t, audit.ActionLogin, failed.Action)
	require.Equal(t, "failure", failed.Detail)
	require.NotNil(t, failed.ActorID)
	require.Equal(t, "user-1", *failed.ActorID)
	require.Nil(t, failed.ResourceID)

	// An unknown email is audited too, with no actor to pin it on.
	_, err = env.svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1!",
	}, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, env.audit.events, 2)
	require.Equal(t, "failure", env.audit.events[1].Detail)
	require.Nil(t, env.audit.events[1].ActorID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	_, unknownErr := env.svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1!",
	}, "", "")
	_, wrongErr := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "wrong1!pw",
	}, "", "")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginReturnsPreviousUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	_, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "s3cret!pw",
	}, "", "10.0.0.1")
	require.NoError(t, err)

	resp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "s3cret!pw",
	}, "", "10.0.0.2")
	require.NoError(t, err)
	require.NotNil(t, resp.LastUse)
	require.True(t, resp.LastUse.Success)
	require.Equal(t, "10.0.0.1", resp.LastUse.IP)
}

func TestResolveSessionUsesCurrentRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "MANAGER",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	resp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "s3cret!pw",
	}, "", "")
	require.NoError(t, err)

	identity, err := env.svc.ResolveSession(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "MANAGER", identity.Role)

	// A role change takes effect on the next resolution, without
	// reissuing the token.
	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "EMPLOYEE",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	identity, err = env.svc.ResolveSession(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "EMPLOYEE", identity.Role)
}

func TestResolveSessionRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ResolveSession(context.Background(), "not-a-token")
	require.Error(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add(UserInfo{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	resp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "a@example.com",
		Password: "s3cret!pw",
	}, "", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, resp.Token))

	_, err = env.svc.ResolveSession(ctx, resp.Token)
	require.ErrorIs(t, err, core.ErrTokenRevoked)

	// Logging out again is a no-op, not an error.
	require.NoError(t, env.svc.Logout(ctx, resp.Token))
}

func TestLogoutWithInvalidTokenIsNoop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.Logout(context.Background(), "junk"))
}

func TestFindAccountOnlyForRecoverableAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedEmployee(t, env)
	env.users.add(UserInfo{
		ID:           "adm-1",
		Email:        "admin@example.com",
		Role:         "ADMIN",
		PasswordHash: mustHash(t, "s3cret!pw"),
	})

	resp, err := env.svc.FindAccount(ctx, "emp@example.com")
	require.NoError(t, err)
	require.True(t, resp.SecurityQuestion)
	require.Equal(t, "Dana", resp.FirstName)

	_, err = env.svc.FindAccount(ctx, "admin@example.com")
	require.ErrorIs(t, err, core.ErrNotFound,
		"accounts without a security answer are not recoverable")

	_, err = env.svc.FindAccount(ctx, "nobody@example.com")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestVerifyAnswerNormalizesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	require.NoError(t, env.svc.VerifyAnswer(ctx, "emp@example.com", "  FLUFFY "))

	err := env.svc.VerifyAnswer(ctx, "emp@example.com", "rover")
	require.ErrorIs(t, err, lockout.ErrAttemptFailed)
}

func TestVerifyAnswerLocksAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	for i := 0; i < 4; i++ {
		err := env.svc.VerifyAnswer(ctx, "emp@example.com", "wrong")
		require.ErrorIs(t, err, lockout.ErrAttemptFailed)
	}

	err := env.svc.VerifyAnswer(ctx, "emp@example.com", "wrong")
	var tma *lockout.TooManyAttemptsError
	require.ErrorAs(t, err, &tma)

	// The correct answer is also refused while the lock holds.
	err = env.svc.VerifyAnswer(ctx, "emp@example.com", "Fluffy")
	require.ErrorAs(t, err, &tma)
}

func TestResetPasswordFullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	info := seedEmployee(t, env)

	// An open session should not survive the reset.
	loginResp, err := env.svc.Login(ctx, LoginRequest{
		Email:    "emp@example.com",
		Password: "old1pass!",
	}, "", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "newpass1!",
	}))

	updated, err := env.users.GetByID(ctx, info.ID)
	require.NoError(t, err)
	match, err := core.VerifyPassword("newpass1!", updated.PasswordHash)
	require.NoError(t, err)
	require.True(t, match)
	require.Contains(t, updated.PasswordHistory, info.PasswordHash,
		"the replaced hash joins the history")

	_, err = env.svc.ResolveSession(ctx, loginResp.Token)
	require.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestResetPasswordEnforcesCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	require.NoError(t, env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "newpass1!",
	}))

	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "another1!",
	})
	var tma *lockout.TooManyAttemptsError
	require.ErrorAs(t, err, &tma,
		"a second change inside the cooldown window is refused")
}

func TestResetPasswordRejectsReuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "old1pass!",
	})
	require.ErrorIs(t, err, lockout.ErrPasswordReused)
}

func TestResetPasswordReuseWinsOverCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	require.NoError(t, env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "newpass1!",
	}))

	// The cooldown is now running, but recycling the previous password
	// is still reported as reuse, not as a cooldown refusal.
	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "old1pass!",
	})
	require.ErrorIs(t, err, lockout.ErrPasswordReused)
	var tma *lockout.TooManyAttemptsError
	require.False(t, errors.As(err, &tma))
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEmployee(t, env)

	err := env.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email:       "emp@example.com",
		Answer:      "Fluffy",
		NewPassword: "short",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)

	token, err := tokens.CreateSessionToken("user-1", "session-1")
	require.NoError(t, err)

	userID, sessionID, err := tokens.VerifySessionToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
	require.Equal(t, "session-1", sessionID)
}

func TestVerifySessionTokenRejectsTampering(t *testing.T) {
	tokens := newTestTokens(t)
	other := newTestTokens(t)

	token, err := other.CreateSessionToken("user-1", "session-1")
	require.NoError(t, err)

	_, _, err = tokens.VerifySessionToken(token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}
