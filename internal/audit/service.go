// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/docvault/internal/metrics"
)

const dedupTTL = 24 * time.Hour

// Recorder appends events to the audit trail. Writes are at-least-once:
// a retried request may reach Record twice, so callers with a stable
// request key use RecordOnce to collapse duplicates.
type Recorder struct {
	repo   Repository
	redis  *redis.Client
	logger *slog.Logger
}

func NewRecorder(
	repo Repository,
	redisClient *redis.Client,
	logger *slog.Logger,
) *Recorder {
	return &Recorder{
		repo:   repo,
		redis:  redisClient,
		logger: logger,
	}
}

func (s *Recorder) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	return nil
}

// RecordOnce records the event unless the same dedup key was already
// seen. When redis is unavailable the event is recorded anyway; a
// duplicate row beats a missing one.
func (s *Recorder) RecordOnce(
	ctx context.Context,
	dedupKey string,
	event Event,
) error {
	if dedupKey != "" && s.redis != nil {
		key := "audit:dedup:" + event.Action + ":" + dedupKey

		set, err := s.redis.SetNX(ctx, key, 1, dedupTTL).Result()
		if err != nil {
			s.logger.Warn("audit dedup check failed, recording anyway",
				"error", err,
				"action", event.Action,
			)
		} else if !set {
			return nil
		}
	}

	return s.Record(ctx, event)
}

// RecordBreach satisfies the role gate's recorder interface.
func (s *Recorder) RecordBreach(
	ctx context.Context,
	actorID *string,
	page string,
	dedupKey string,
) error {
	metrics.ObservePageBreach(page)

	return s.RecordOnce(ctx, dedupKey, Event{
		ActorID:      actorID,
		Action:       ActionPageBreach,
		ResourceType: "page",
		ResourceID:   &page,
		Detail:       "access denied",
	})
}

func (s *Recorder) List(
	ctx context.Context,
	params ListParams,
) ([]Event, error) {
	return s.repo.List(ctx, params)
}
