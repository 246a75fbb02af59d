// AngelaMos | 2026
// service.go

package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/docvault/internal/config"
	"github.com/carterperez-dev/docvault/internal/core"
	"github.com/carterperez-dev/docvault/internal/metrics"
)

// Service enforces attempt counting and cooldowns per flow and
// identity. All state lives in the database, so every instance of the
// server sees the same counters.
type Service struct {
	repo Repository
	cfg  config.LockoutConfig
	now  func() time.Time
}

func NewService(repo Repository, cfg config.LockoutConfig) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Attempt runs verify under the identity's row lock. A locked identity
// fails fast without calling verify, so the attempt is not counted and
// no timing signal leaks about the stored secret. Success clears the
// counter; the failure that reaches the threshold sets the lock and
// resets the counter to zero.
func (s *Service) Attempt(
	ctx context.Context,
	flow, identity string,
	verify func() bool,
) error {
	return s.repo.Mutate(ctx, flow, identity, func(rec *Record) error {
		now := s.now()

		if rec.LockedUntil != nil && rec.LockedUntil.After(now) {
			return &TooManyAttemptsError{
				RemainingSeconds: remainingSeconds(*rec.LockedUntil, now),
			}
		}
		rec.LockedUntil = nil

		if verify() {
			rec.AttemptCount = 0
			return nil
		}

		rec.AttemptCount++
		if rec.AttemptCount >= s.cfg.NicknameMaxAttempts {
			until := now.Add(s.cfg.NicknameCooldown)
			rec.LockedUntil = &until
			rec.AttemptCount = 0

			metrics.ObserveLockout(flow)

			return &TooManyAttemptsError{
				RemainingSeconds: remainingSeconds(until, now),
			}
		}

		return ErrAttemptFailed
	})
}

// CheckPasswordChange fails when the identity completed a password
// change more recently than the configured cooldown.
func (s *Service) CheckPasswordChange(
	ctx context.Context,
	identity string,
) error {
	return s.repo.Mutate(
		ctx,
		FlowPasswordChange,
		identity,
		func(rec *Record) error {
			now := s.now()
			if rec.LockedUntil != nil && rec.LockedUntil.After(now) {
				return &TooManyAttemptsError{
					RemainingSeconds: remainingSeconds(*rec.LockedUntil, now),
				}
			}
			return nil
		},
	)
}

// RecordPasswordChange starts the cooldown window for the identity.
func (s *Service) RecordPasswordChange(
	ctx context.Context,
	identity string,
) error {
	err := s.repo.Mutate(
		ctx,
		FlowPasswordChange,
		identity,
		func(rec *Record) error {
			until := s.now().Add(s.cfg.PasswordChangeCooldown)
			rec.LockedUntil = &until
			rec.AttemptCount = 0
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("record password change: %w", err)
	}

	metrics.ObserveLockout(FlowPasswordChange)
	return nil
}

// Reset clears the counter and any active lock for the identity.
func (s *Service) Reset(ctx context.Context, flow, identity string) error {
	return s.repo.Mutate(ctx, flow, identity, func(rec *Record) error {
		rec.AttemptCount = 0
		rec.LockedUntil = nil
		return nil
	})
}

// CheckPasswordReuse rejects a candidate password matching the current
// hash or any entry in the history.
func (s *Service) CheckPasswordReuse(
	password, currentHash string,
	history []string,
) error {
	if currentHash != "" {
		match, err := core.VerifyPassword(password, currentHash)
		if err == nil && match {
			return ErrPasswordReused
		}
	}

	for _, hash := range history {
		match, err := core.VerifyPassword(password, hash)
		if err == nil && match {
			return ErrPasswordReused
		}
	}

	return nil
}

// HistoryLimit is the number of prior hashes retained for reuse checks.
func (s *Service) HistoryLimit() int {
	return s.cfg.PasswordHistoryLimit
}

func remainingSeconds(until, now time.Time) int64 {
	remaining := int64(until.Sub(now).Round(time.Second).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
