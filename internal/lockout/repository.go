// AngelaMos | 2026
// repository.go

package lockout

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/docvault/internal/core"
)

// Repository owns the per-flow, per-identity lockout state. Mutate runs
// fn against the current record while holding a row lock, so concurrent
// attempts for the same identity serialize instead of both reading a
// stale counter.
type Repository interface {
	Mutate(
		ctx context.Context,
		flow, identity string,
		fn func(rec *Record) error,
	) error
	Get(ctx context.Context, flow, identity string) (*Record, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Mutate commits the record even when fn returns a domain error: a
// failure that triggers a lock must persist the lock while the error
// propagates to the caller.
func (r *repository) Mutate(
	ctx context.Context,
	flow, identity string,
	fn func(rec *Record) error,
) error {
	var fnErr error

	txErr := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO lockout_records (flow, identity)
			VALUES ($1, $2)
			ON CONFLICT (flow, identity) DO NOTHING`

		if _, err := tx.ExecContext(ctx, insert, flow, identity); err != nil {
			return fmt.Errorf("ensure lockout record: %w", err)
		}

		query := `
			SELECT flow, identity, attempt_count, locked_until, updated_at
			FROM lockout_records
			WHERE flow = $1 AND identity = $2
			FOR UPDATE`

		var rec Record
		if err := tx.GetContext(ctx, &rec, query, flow, identity); err != nil {
			return fmt.Errorf("get lockout record: %w", err)
		}

		fnErr = fn(&rec)

		update := `
			UPDATE lockout_records
			SET attempt_count = $3, locked_until = $4, updated_at = NOW()
			WHERE flow = $1 AND identity = $2`

		if _, err := tx.ExecContext(ctx, update,
			flow,
			identity,
			rec.AttemptCount,
			rec.LockedUntil,
		); err != nil {
			return fmt.Errorf("update lockout record: %w", err)
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	return fnErr
}

func (r *repository) Get(
	ctx context.Context,
	flow, identity string,
) (*Record, error) {
	query := `
		SELECT flow, identity, attempt_count, locked_until, updated_at
		FROM lockout_records
		WHERE flow = $1 AND identity = $2`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, flow, identity)
	if err != nil {
		return nil, fmt.Errorf("get lockout record: %w", err)
	}

	return &rec, nil
}
