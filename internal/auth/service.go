// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/docvault/internal/audit"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/lockout"
	"github.com/carterperez-dev/docvault/internal/metrics"
	"github.com/carterperez-dev/docvault/internal/middleware"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const revokedSessionTTL = 13 * time.Hour

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	UpdatePassword(
		ctx context.Context,
		id, passwordHash string,
		history []string,
	) error
	RecordUse(ctx context.Context, id string, success bool, ip string) error
}

type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

type Service struct {
	repo     Repository
	tokens   *SessionTokenManager
	users    UserProvider
	lockouts *lockout.Service
	auditor  Auditor
	redis    *redis.Client
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	tokens *SessionTokenManager,
	users UserProvider,
	lockouts *lockout.Service,
	auditor Auditor,
	redisClient *redis.Client,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		users:    users,
		lockouts: lockouts,
		auditor:  auditor,
		redis:    redisClient,
		logger:   logger,
	}
}

// Login verifies credentials and opens a session. Unknown email and
// wrong password take the same code path, including a full hash
// verification, so neither the response nor its timing says which one
// it was.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*LoginResponse, error) {
	userInfo, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	var storedHash *string
	if userInfo != nil {
		storedHash = &userInfo.PasswordHash
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		storedHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if userInfo == nil {
		metrics.ObserveLogin("failure")
		s.auditLogin(ctx, nil, nil, "failure")
		return nil, ErrInvalidCredentials
	}

	if !valid {
		metrics.ObserveLogin("failure")
		if recErr := s.users.RecordUse(
			ctx, userInfo.ID, false, ipAddress,
		); recErr != nil {
			s.logger.Error("record failed login", "error", recErr)
		}
		s.auditLogin(ctx, &userInfo.ID, nil, "failure")
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if upErr := s.users.UpdatePassword(
			ctx, userInfo.ID, newHash, userInfo.PasswordHistory,
		); upErr != nil {
			s.logger.Warn("password rehash failed", "error", upErr)
		}
	}

	// Previous use is captured before this login overwrites it.
	var lastUse *LastUseInfo
	if userInfo.LastUseAt != nil {
		lastUse = &LastUseInfo{At: *userInfo.LastUseAt}
		if userInfo.LastUseSuccess != nil {
			lastUse.Success = *userInfo.LastUseSuccess
		}
		if userInfo.LastUseIP != nil {
			lastUse.IP = *userInfo.LastUseIP
		}
	}

	if err := s.users.RecordUse(ctx, userInfo.ID, true, ipAddress); err != nil {
		s.logger.Error("record login", "error", err)
	}

	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userInfo.ID,
		ExpiresAt: time.Now().Add(s.tokens.TokenExpire()),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.tokens.CreateSessionToken(userInfo.ID, session.ID)
	if err != nil {
		return nil, err
	}

	s.auditLogin(ctx, &userInfo.ID, &session.ID, "success")

	metrics.ObserveLogin("success")

	return &LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      toProfileInfo(userInfo),
		LastUse:   lastUse,
	}, nil
}

// auditLogin records every login attempt, failed ones included, with
// the outcome in the event detail. Audit trouble never blocks a login.
func (s *Service) auditLogin(
	ctx context.Context,
	actorID, sessionID *string,
	outcome string,
) {
	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      actorID,
		Action:       audit.ActionLogin,
		ResourceType: "session",
		ResourceID:   sessionID,
		Detail:       outcome,
	}); err != nil {
		s.logger.Error("audit login", "error", err, "outcome", outcome)
	}
}

// ResolveSession maps a bearer token to an identity. The role always
// comes from the current user record, never from the token, so a role
// change is effective on the caller's next request.
func (s *Service) ResolveSession(
	ctx context.Context,
	token string,
) (*middleware.Identity, error) {
	userID, sessionID, err := s.tokens.VerifySessionToken(token)
	if err != nil {
		return nil, err
	}

	// Fast path: a revoked session leaves a redis marker so most
	// post-logout requests skip the database entirely.
	if s.redis != nil {
		exists, rdErr := s.redis.Exists(
			ctx, revokedSessionKey(sessionID),
		).Result()
		if rdErr == nil && exists > 0 {
			return nil, fmt.Errorf("resolve session: %w", core.ErrTokenRevoked)
		}
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("resolve session: %w", core.ErrTokenInvalid)
		}
		return nil, err
	}

	if session.UserID != userID {
		return nil, fmt.Errorf("resolve session: %w", core.ErrTokenInvalid)
	}

	if !session.IsValid() {
		return nil, fmt.Errorf("resolve session: %w", core.ErrTokenRevoked)
	}

	userInfo, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("resolve session: %w", core.ErrTokenInvalid)
		}
		return nil, err
	}

	return &middleware.Identity{
		UserID: userInfo.ID,
		Email:  userInfo.Email,
		Role:   userInfo.Role,
	}, nil
}

// Logout revokes the presented session. It is idempotent: a second
// logout with the same token succeeds without effect.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, sessionID, err := s.tokens.VerifySessionToken(token)
	if err != nil {
		// Expired or garbage tokens have nothing left to revoke.
		return nil
	}

	if err := s.repo.RevokeSession(ctx, sessionID); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.Set(
			ctx,
			revokedSessionKey(sessionID),
			1,
			revokedSessionTTL,
		).Err(); err != nil {
			s.logger.Warn("cache session revocation", "error", err)
		}
	}

	return nil
}

// FindAccount is the first recovery step. Only employee accounts carry
// a security answer hash, so anything else reports not found.
func (s *Service) FindAccount(
	ctx context.Context,
	email string,
) (*FindAccountResponse, error) {
	userInfo, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if userInfo.SecurityAnswerHash == nil {
		return nil, fmt.Errorf("find account: %w", core.ErrNotFound)
	}

	return &FindAccountResponse{
		Email:            userInfo.Email,
		FirstName:        userInfo.FirstName,
		SecurityQuestion: true,
	}, nil
}

// VerifyAnswer checks the security answer under the lockout policy.
// Failures count toward the attempt limit; an active lock fails fast
// without consuming an attempt.
func (s *Service) VerifyAnswer(
	ctx context.Context,
	email, answer string,
) error {
	userInfo, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if userInfo.SecurityAnswerHash == nil {
		return fmt.Errorf("verify answer: %w", core.ErrNotFound)
	}

	return s.lockouts.Attempt(
		ctx,
		lockout.FlowNicknameVerify,
		userInfo.ID,
		func() bool {
			normalized := core.NormalizeSecurityAnswer(answer)
			valid, _, vErr := core.VerifyPasswordTimingSafe(
				normalized,
				userInfo.SecurityAnswerHash,
			)
			return vErr == nil && valid
		},
	)
}

// ResetPassword completes recovery: the answer is verified again under
// the same lockout flow, the reuse and change-cooldown policies are
// enforced, and every open session for the user is revoked. Reuse is
// checked before the cooldown so a recycled password is always rejected
// as reuse, even while a cooldown is active.
func (s *Service) ResetPassword(
	ctx context.Context,
	req ResetPasswordRequest,
) error {
	userInfo, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if userInfo.SecurityAnswerHash == nil {
		return fmt.Errorf("reset password: %w", core.ErrNotFound)
	}

	if err := s.lockouts.Attempt(
		ctx,
		lockout.FlowNicknameVerify,
		userInfo.ID,
		func() bool {
			normalized := core.NormalizeSecurityAnswer(req.Answer)
			valid, _, vErr := core.VerifyPasswordTimingSafe(
				normalized,
				userInfo.SecurityAnswerHash,
			)
			return vErr == nil && valid
		},
	); err != nil {
		return err
	}

	if err := core.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return err
	}

	if err := s.lockouts.CheckPasswordReuse(
		req.NewPassword,
		userInfo.PasswordHash,
		userInfo.PasswordHistory,
	); err != nil {
		return err
	}

	if err := s.lockouts.CheckPasswordChange(ctx, userInfo.ID); err != nil {
		return err
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	history := append(
		append([]string{}, userInfo.PasswordHistory...),
		userInfo.PasswordHash,
	)
	if limit := s.lockouts.HistoryLimit(); limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	if err := s.users.UpdatePassword(
		ctx, userInfo.ID, newHash, history,
	); err != nil {
		return err
	}

	if err := s.lockouts.RecordPasswordChange(ctx, userInfo.ID); err != nil {
		s.logger.Error("record password change cooldown", "error", err)
	}

	if err := s.repo.RevokeAllForUser(ctx, userInfo.ID); err != nil {
		s.logger.Error("revoke sessions after reset", "error", err)
	}

	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:      &userInfo.ID,
		Action:       audit.ActionPasswordReset,
		ResourceType: "user",
		ResourceID:   &userInfo.ID,
	}); err != nil {
		s.logger.Error("audit password reset", "error", err)
	}

	return nil
}

func (s *Service) GetProfile(
	ctx context.Context,
	userID string,
) (*ProfileInfo, error) {
	userInfo, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := toProfileInfo(userInfo)
	return &profile, nil
}

// InvalidateAllSessions deletes expired session rows. Exposed for the
// admin maintenance endpoint.
func (s *Service) InvalidateAllSessions(ctx context.Context) error {
	deleted, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("expired sessions purged", "count", deleted)
	return nil
}

func revokedSessionKey(sessionID string) string {
	return "session:revoked:" + sessionID
}
