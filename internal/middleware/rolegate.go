// AngelaMos | 2026
// rolegate.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/docvault/internal/core"
)

const idempotencyKeyHeader = "X-Idempotency-Key"

// BreachRecorder captures denied page access. Implementations must
// deduplicate by dedupKey so a retried request lands a single record.
type BreachRecorder interface {
	RecordBreach(
		ctx context.Context,
		actorID *string,
		page string,
		dedupKey string,
	) error
}

type RoleGate struct {
	breaches BreachRecorder
	logger   *slog.Logger
}

func NewRoleGate(breaches BreachRecorder, logger *slog.Logger) *RoleGate {
	return &RoleGate{
		breaches: breaches,
		logger:   logger,
	}
}

// Require admits callers whose resolved role is in roles. Everyone
// else, anonymous or wrong-role alike, gets the same generic denial so
// the response does not leak whether the session was valid. Each denial
// records exactly one breach for the page.
func (g *RoleGate) Require(
	page string,
	roles ...string,
) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())

			if identity != nil {
				if _, ok := roleSet[identity.Role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			g.recordBreach(r, identity, page)
			core.JSONError(w, core.AccessDeniedError())
		})
	}
}

// RequireAuthenticated rejects anonymous callers with the same generic
// denial as Require, without recording a breach.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			core.JSONError(w, core.AccessDeniedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *RoleGate) recordBreach(r *http.Request, identity *Identity, page string) {
	if g.breaches == nil {
		return
	}

	dedupKey := r.Header.Get(idempotencyKeyHeader)
	if dedupKey == "" {
		dedupKey = GetRequestID(r.Context())
	}

	var actorID *string
	if identity != nil {
		actorID = &identity.UserID
	}

	if err := g.breaches.RecordBreach(
		r.Context(),
		actorID,
		page,
		dedupKey,
	); err != nil {
		g.logger.Error("record page breach",
			"error", err,
			"page", page,
			"request_id", GetRequestID(r.Context()),
		)
	}
}
